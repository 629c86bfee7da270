package model

// SkillTier is the single signal the pipeline consumes from personalization.
// Used only to bias ranking; storage and learning-path generation live outside
// this core.
type SkillTier string

const (
	SkillTierBeginner     SkillTier = "beginner"
	SkillTierIntermediate SkillTier = "intermediate"
	SkillTierAdvanced     SkillTier = "advanced"
)

func (t SkillTier) Valid() bool {
	switch t {
	case SkillTierBeginner, SkillTierIntermediate, SkillTierAdvanced:
		return true
	}
	return false
}
