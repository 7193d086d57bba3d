// Package calibration persists measured output/input sync offsets per device
// pair so a latency corrector can start from a known bias.
//
// Example:
//
//	store := calibration.Load(path)
//	store.Record("AirPods Pro", "Built-in Microphone", 0.045, 0.8)
//	if err := store.Save(path); err != nil {
//		log.Fatal(err)
//	}
//	if off, ok := store.Offset("AirPods Pro", "Built-in Microphone"); ok {
//		corrector.Estimator().SetBiasSecs(off)
//	}
package calibration
