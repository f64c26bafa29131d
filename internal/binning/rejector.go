package binning

// ApplyBinRejectionRules drops every bin holding at least one cup whose
// present/expected ratio is strictly below requiredDataProportion. The whole
// bin goes, not just the offending cup, whatever the aggregation function.
func ApplyBinRejectionRules(bins []RawBin, requiredDataProportion float64) []RawBin {
	kept := make([]RawBin, 0, len(bins))
	for _, bin := range bins {
		if binMeetsThreshold(bin, requiredDataProportion) {
			kept = append(kept, bin)
		}
	}
	return kept
}

func binMeetsThreshold(bin RawBin, requiredDataProportion float64) bool {
	for _, bucket := range bin.Buckets {
		for _, cup := range bucket.Cups {
			if cup.DataProportion() < requiredDataProportion {
				return false
			}
		}
	}
	return true
}
