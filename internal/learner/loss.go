package learner

import (
	"math"
	"sort"

	"github.com/openeeap/openppo/internal/policy"
	"github.com/openeeap/openppo/internal/rollout"
	"github.com/openeeap/openppo/pkg/autograd"
	"github.com/openeeap/openppo/pkg/errors"
	"github.com/openeeap/openppo/pkg/types"
)

// ============================================================================
// Loss Assembler
// ============================================================================

// LossAssembler builds the scalar total loss of one minibatch from the
// policy's differentiable outputs, together with the per-term diagnostics.
type LossAssembler struct {
	clipParam           float64
	valueLossCoef       float64
	auxLossCoef         float64
	auxEntropyCoef      float64
	useClippedValueLoss bool

	entropyCoef EntropyCoefficient

	// auxTasksConfigured selects the weighted auxiliary path over the
	// legacy weight-1 summation
	auxTasksConfigured bool
}

// AssembledLoss carries the total loss node plus the raw per-term
// diagnostics the update loop records.
type AssembledLoss struct {
	// Total is the single scalar the backward pass runs through
	Total *autograd.Value

	// ActionLoss, ValueLoss and DistEntropy are the reduced term values
	ActionLoss  float64
	ValueLoss   float64
	DistEntropy float64

	// Ratios holds the per-sample importance ratios
	Ratios []float64

	// ValuePreds holds the per-sample pre-clip value predictions
	ValuePreds []float64

	// AuxEntropy is the auxiliary-head entropy, NaN when absent
	AuxEntropy float64

	// AuxMetrics holds per-task diagnostics keyed by their metric name
	AuxMetrics map[types.MetricKey]float64
}

// NewLossAssembler creates an assembler with the given clipping and
// weighting configuration.
func NewLossAssembler(clipParam, valueLossCoef, auxLossCoef, auxEntropyCoef float64, useClippedValueLoss, auxTasksConfigured bool, entropyCoef EntropyCoefficient) *LossAssembler {
	return &LossAssembler{
		clipParam:           clipParam,
		valueLossCoef:       valueLossCoef,
		auxLossCoef:         auxLossCoef,
		auxEntropyCoef:      auxEntropyCoef,
		useClippedValueLoss: useClippedValueLoss,
		entropyCoef:         entropyCoef,
		auxTasksConfigured:  auxTasksConfigured,
	}
}

// Assemble builds the total loss for one minibatch. auxEntropy may be nil
// for plain policies.
func (a *LossAssembler) Assemble(res *policy.EvalResult, auxEntropy *autograd.Value, batch *rollout.Batch) (*AssembledLoss, error) {
	n := batch.Size()
	if len(res.Values) != n || len(res.ActionLogProbs) != n || len(res.Entropies) != n {
		return nil, errors.NewFromCode(errors.ErrLearnShapeMismatch).
			WithDetails("batch", n).
			WithDetails("values", len(res.Values)).
			WithDetails("action_log_probs", len(res.ActionLogProbs)).
			WithDetails("entropies", len(res.Entropies))
	}

	ratios := make([]*autograd.Value, n)
	actionLosses := make([]*autograd.Value, n)
	valueLosses := make([]*autograd.Value, n)

	for i := 0; i < n; i++ {
		ratio := autograd.Exp(autograd.Shift(res.ActionLogProbs[i], -batch.ActionLogProbs[i]))
		ratios[i] = ratio

		adv := batch.Advantages[i]
		surr1 := autograd.Scale(ratio, adv)
		surr2 := autograd.Scale(autograd.Clamp(ratio, 1-a.clipParam, 1+a.clipParam), adv)
		actionLosses[i] = autograd.Neg(autograd.Min(surr1, surr2))

		valueLosses[i] = a.valueLoss(res.Values[i], batch.ValuePreds[i], batch.Returns[i])
	}

	// Reduction: a weighted mean under is_coeffs, applied identically to
	// every elementwise term, else a plain mean
	reduce := a.reducer(batch)
	actionLoss := reduce(actionLosses)
	valueLoss := reduce(valueLosses)
	distEntropy := reduce(res.Entropies)

	allLosses := []*autograd.Value{
		autograd.Scale(valueLoss, a.valueLossCoef),
		actionLoss,
	}

	// The weighted path applies only when aux tasks are both configured
	// and actually present; a configured policy evaluating without aux
	// modules falls back to the legacy weight-1 extension
	weightedAux := a.auxTasksConfigured && len(res.AuxLosses) > 0

	auxMetrics := make(map[types.MetricKey]float64)
	if weightedAux {
		allLosses = append(allLosses, a.weightedAuxLoss(res, auxMetrics))
	}

	allLosses = append(allLosses, a.entropyCoef.LossTerm(distEntropy))

	if auxEntropy != nil {
		allLosses = append(allLosses, autograd.Scale(auxEntropy, a.auxEntropyCoef))
	}

	if !weightedAux {
		for _, name := range sortedAuxNames(res.AuxLosses) {
			r := res.AuxLosses[name]
			allLosses = append(allLosses, r.Loss)
			for k, v := range r.Metrics {
				auxMetrics[types.AuxMetricKey(name, k)] = v
			}
		}
	}

	total := autograd.Sum(allLosses)

	out := &AssembledLoss{
		Total:       total,
		ActionLoss:  actionLoss.Data,
		ValueLoss:   valueLoss.Data,
		DistEntropy: distEntropy.Data,
		Ratios:      make([]float64, n),
		ValuePreds:  make([]float64, n),
		AuxEntropy:  math.NaN(),
		AuxMetrics:  auxMetrics,
	}
	for i := 0; i < n; i++ {
		out.Ratios[i] = ratios[i].Data
		out.ValuePreds[i] = res.Values[i].Data
	}
	if auxEntropy != nil {
		out.AuxEntropy = auxEntropy.Data
	}
	return out, nil
}

// valueLoss builds the per-sample squared error, applying double-sided
// trust-region clipping when configured. The clipped candidate is a
// detached constant, so clipped samples contribute no value gradient.
func (a *LossAssembler) valueLoss(value *autograd.Value, oldPred, ret float64) *autograd.Value {
	node := value
	if a.useClippedValueLoss {
		delta := value.Data - oldPred
		if math.Abs(delta) >= a.clipParam {
			clipped := oldPred + math.Max(-a.clipParam, math.Min(delta, a.clipParam))
			node = autograd.V(clipped)
		}
	}
	diff := autograd.Shift(node, -ret)
	return autograd.Scale(autograd.Mul(diff, diff), 0.5)
}

// reducer returns the reduction applied to every elementwise loss term of
// the minibatch.
func (a *LossAssembler) reducer(batch *rollout.Batch) func([]*autograd.Value) *autograd.Value {
	if batch.IsCoeffs == nil {
		return autograd.Mean
	}
	weights := make([]float64, len(batch.IsCoeffs))
	for i, c := range batch.IsCoeffs {
		weights[i] = math.Min(c, 1.0)
	}
	return func(vs []*autograd.Value) *autograd.Value {
		return autograd.WeightedMean(vs, weights)
	}
}

// weightedAuxLoss sums the auxiliary losses under aux_loss_coef and records
// their per-task diagnostics.
func (a *LossAssembler) weightedAuxLoss(res *policy.EvalResult, auxMetrics map[types.MetricKey]float64) *autograd.Value {
	terms := make([]*autograd.Value, 0, len(res.AuxLosses))
	for _, name := range sortedAuxNames(res.AuxLosses) {
		r := res.AuxLosses[name]
		terms = append(terms, r.Loss)
		auxMetrics[types.AuxMetricKey(name, "loss")] = r.Loss.Data
	}
	return autograd.Scale(autograd.Sum(terms), a.auxLossCoef)
}

// sortedAuxNames returns the auxiliary task names in stable order.
func sortedAuxNames(aux map[string]*policy.AuxLossResult) []string {
	names := make([]string, 0, len(aux))
	for name := range aux {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FractionClipped returns the fraction of ratios strictly outside the clip
// interval.
func (a *LossAssembler) FractionClipped(ratios []float64) float64 {
	if len(ratios) == 0 {
		return 0
	}
	clipped := 0
	for _, r := range ratios {
		if r > 1+a.clipParam || r < 1-a.clipParam {
			clipped++
		}
	}
	return float64(clipped) / float64(len(ratios))
}

//Personal.AI order the ending
