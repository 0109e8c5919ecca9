package testutil

import "time"

// WithStandardTestData adds two model types with interleaved creation times:
//
//	rf_1     +0m   accuracy 0.55
//	xgb_1    +1m   accuracy 0.57
//	rf_2     +2m   accuracy 0.60
//	rf_3     +3m   accuracy 0.61
//
// Listing all newest first yields rf_3, rf_2, xgb_1, rf_1.
func (b *Builder) WithStandardTestData() *Builder {
	return b.
		WithVersion("rf_1", ModelType("randomforest"), After(0), Metric("accuracy", 0.55),
			Param("n_estimators", 100)).
		WithVersion("xgb_1", ModelType("xgboost"), After(time.Minute), Metric("accuracy", 0.57),
			Param("max_depth", 6)).
		WithVersion("rf_2", ModelType("randomforest"), After(2*time.Minute), Metric("accuracy", 0.60),
			Param("n_estimators", 200)).
		WithVersion("rf_3", ModelType("randomforest"), After(3*time.Minute), Metric("accuracy", 0.61),
			Param("n_estimators", 200), Description("weekly retrain"),
			Importance(Score("gf_rolling", 0.5), Score("venue_code", 0.2)))
}

// WithTiedTestData adds two versions of one type sharing a creation time.
// The later insert, rf_b, is the latest.
func (b *Builder) WithTiedTestData() *Builder {
	return b.
		WithVersion("rf_a", ModelType("randomforest")).
		WithVersion("rf_b", ModelType("randomforest"))
}
