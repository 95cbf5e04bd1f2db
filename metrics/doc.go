// Package metrics exports sketching and capture activity to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	col := metrics.NewCollector(reg)
//	emb, err := capture.New(net, loader,
//		capture.WithObserver(col),
//		capture.WithOnBatch(col.OnBatch),
//	)
package metrics
