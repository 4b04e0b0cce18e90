package detectors

import "fmt"

// Settings holds every tunable threshold of the six detectors. Minimum-size
// thresholds implement the insufficient-sample policy: a group below its
// minimum contributes no findings.
type Settings struct {
	// PriceOutlierMinGroupSize is the smallest category group that gets
	// price statistics.
	PriceOutlierMinGroupSize int     `yaml:"price_outlier_min_group_size"`
	ZScoreThreshold          float64 `yaml:"z_score_threshold"`

	ConcentrationShareThreshold float64 `yaml:"concentration_share_threshold"`
	// ConcentrationMinContracts is the smallest (authority, winner, category)
	// group counted towards market shares.
	ConcentrationMinContracts int `yaml:"concentration_min_contracts"`
	ConcentrationWindowDays   int `yaml:"concentration_window_days"`

	// ClusterMinSize is the smallest (date, authority) group that can be a
	// cluster; ClusterAbsoluteFloor is the size a cluster must also reach to
	// be flagged.
	ClusterMinSize          int     `yaml:"cluster_min_size"`
	ClusterAbsoluteFloor    int     `yaml:"cluster_absolute_floor"`
	ClusterStdDevMultiplier float64 `yaml:"cluster_std_dev_multiplier"`

	// NetworkMinContracts is the smallest (authority, winner) pair kept as a
	// candidate edge.
	NetworkMinContracts  int `yaml:"network_min_contracts"`
	NetworkFlagThreshold int `yaml:"network_flag_threshold"`

	MLContamination float64 `yaml:"ml_contamination"`
	// MLMinSamples is the smallest batch the outlier model is fitted on.
	MLMinSamples int     `yaml:"ml_min_samples"`
	MLTrees      int     `yaml:"ml_trees"`
	MLScoreScale float64 `yaml:"ml_score_scale"`
	MLSeed       uint64  `yaml:"ml_seed"`

	GeoMismatchEnabled bool    `yaml:"geo_mismatch_enabled"`
	GeoMismatchScore   float64 `yaml:"geo_mismatch_score"`
}

// DefaultSettings returns the canonical thresholds. Where source variants
// disagreed the stricter value is used.
func DefaultSettings() Settings {
	return Settings{
		PriceOutlierMinGroupSize:    5,
		ZScoreThreshold:             2.5,
		ConcentrationShareThreshold: 0.40,
		ConcentrationMinContracts:   2,
		ConcentrationWindowDays:     365,
		ClusterMinSize:              3,
		ClusterAbsoluteFloor:        5,
		ClusterStdDevMultiplier:     2.0,
		NetworkMinContracts:         3,
		NetworkFlagThreshold:        10,
		MLContamination:             0.10,
		MLMinSamples:                10,
		MLTrees:                     100,
		MLScoreScale:                10,
		MLSeed:                      42,
		GeoMismatchEnabled:          true,
		GeoMismatchScore:            3,
	}
}

// Validate rejects settings no detector can run with.
func (s Settings) Validate() error {
	switch {
	case s.PriceOutlierMinGroupSize < 2:
		return fmt.Errorf("price_outlier_min_group_size must be >= 2, got %d", s.PriceOutlierMinGroupSize)
	case s.ZScoreThreshold <= 0:
		return fmt.Errorf("z_score_threshold must be > 0")
	case s.ConcentrationShareThreshold <= 0 || s.ConcentrationShareThreshold >= 1:
		return fmt.Errorf("concentration_share_threshold must be in (0,1), got %v", s.ConcentrationShareThreshold)
	case s.ConcentrationMinContracts < 1:
		return fmt.Errorf("concentration_min_contracts must be >= 1")
	case s.ConcentrationWindowDays < 1:
		return fmt.Errorf("concentration_window_days must be >= 1")
	case s.ClusterMinSize < 1 || s.ClusterAbsoluteFloor < s.ClusterMinSize:
		return fmt.Errorf("cluster_absolute_floor (%d) must be >= cluster_min_size (%d) >= 1", s.ClusterAbsoluteFloor, s.ClusterMinSize)
	case s.ClusterStdDevMultiplier < 0:
		return fmt.Errorf("cluster_std_dev_multiplier must be >= 0")
	case s.NetworkMinContracts < 1 || s.NetworkFlagThreshold < s.NetworkMinContracts:
		return fmt.Errorf("network_flag_threshold (%d) must be >= network_min_contracts (%d) >= 1", s.NetworkFlagThreshold, s.NetworkMinContracts)
	case s.MLContamination <= 0 || s.MLContamination > 0.5:
		return fmt.Errorf("ml_contamination must be in (0,0.5], got %v", s.MLContamination)
	case s.MLMinSamples < 2:
		return fmt.Errorf("ml_min_samples must be >= 2")
	case s.MLTrees < 1:
		return fmt.Errorf("ml_trees must be >= 1")
	case s.MLScoreScale <= 0:
		return fmt.Errorf("ml_score_scale must be > 0")
	}
	return nil
}
