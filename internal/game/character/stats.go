package character

// MasteryFromRating converts a mastery rating to a fraction including the base,
// scaling the portion above MasteryDRThreshold by MasteryDRFactor.
//
// Precondition: rating >= 0.
// Postcondition: result is continuous and non-decreasing in rating.
func MasteryFromRating(rating float64) float64 {
	if rating <= MasteryDRThreshold {
		return rating*MasteryPerPoint + BaseMastery
	}
	eff := MasteryDRThreshold + (rating-MasteryDRThreshold)*MasteryDRFactor
	return eff*MasteryPerPoint + BaseMastery
}

// UpdateStats recomputes the derived percentages from ratings. While empowered
// the rating portion of crit counts double.
//
// Postcondition: Crit, Haste, Mastery, and Versatility reflect the current ratings.
func (a *Attributes) UpdateStats(empowered bool) {
	critFromRating := a.CritRating * CritPerPoint
	if empowered {
		critFromRating *= 2
	}
	a.Crit = BaseCrit + critFromRating
	a.Haste = a.HasteRating * HastePerPoint
	a.Mastery = MasteryFromRating(a.MasteryRating)
	a.Versatility = a.VersatilityRating*VersatilityPerPoint + a.BonusVersatility
}
