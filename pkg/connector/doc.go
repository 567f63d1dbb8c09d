// Package connector provides the framework the source connectors are built on.
//
// # Architecture Overview
//
// The connector package is organized into several sub-packages:
//
//   - core: Defines the Source interface every connector implements. Read
//     returns a lazy record sequence, so nothing is fetched until the caller
//     ranges over it.
//
//   - base: Provides BaseConnector, which carries the connector identity, a
//     zap logger, a metrics collector and a tracer. Observe wraps an operation
//     in a span and records its duration and error category. All connectors
//     should embed BaseConnector.
//
//   - sources: Contains the elasticsearch source, which also serves OpenSearch.
//
//   - registry: Implements a factory pattern for connector discovery and
//     instantiation. Connectors self-register during initialization.
//
// # Example Usage
//
//	source, err := registry.CreateSource("elasticsearch")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	status := source.Check(ctx, cfg)
//	if status.Status != protocol.StatusSucceeded {
//		log.Fatal(status.Message)
//	}
//
//	records, err := source.Read(ctx, cfg, catalog, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for record, err := range records {
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println(record.Stream, string(record.Data))
//	}
//
// # Best Practices
//
// 1. Embed BaseConnector and run every operation through Observe
// 2. Return structured errors from the nebulaerrors package
// 3. Report check failures as a FAILED status, never as an error
// 4. Stop fetching as soon as the consumer stops ranging
// 5. Release server-side resources such as scroll cursors on every exit path
package connector
