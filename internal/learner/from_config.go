package learner

import (
	"github.com/openeeap/openppo/internal/policy"
	"github.com/openeeap/openppo/pkg/config"
)

// FromConfig builds an updater from the loaded application configuration.
func FromConfig(actorCritic policy.Policy, cfg *config.Config, deps Deps) (Updater, error) {
	return NewPPO(actorCritic, Config{
		ClipParam:              cfg.Learner.ClipParam,
		PPOEpoch:               cfg.Learner.PPOEpoch,
		NumMiniBatch:           cfg.Learner.NumMiniBatch,
		ValueLossCoef:          cfg.Learner.ValueLossCoef,
		EntropyCoef:            cfg.Learner.EntropyCoef,
		AuxLossCoef:            cfg.Learner.AuxLossCoef,
		AuxEntropyCoef:         cfg.Learner.AuxEntropyCoef,
		LR:                     cfg.Learner.LR,
		Eps:                    cfg.Learner.Eps,
		MaxGradNorm:            cfg.Learner.MaxGradNorm,
		UseClippedValueLoss:    cfg.Learner.UseClippedValueLoss,
		UseNormalizedAdvantage: cfg.Learner.UseNormalizedAdvantage,
		EntropyTargetFactor:    cfg.Learner.EntropyTargetFactor,
		UseAdaptiveEntropyPen:  cfg.Learner.UseAdaptiveEntropyPen,
	}, deps)
}

//Personal.AI order the ending
