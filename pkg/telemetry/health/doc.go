// Package health provides liveness and readiness endpoints.
//
// Components register readiness checks; /ready runs them and answers 503
// while any fails:
//
//	checker := health.New(2 * time.Second)
//	checker.Register("engine", engine.Ready)
//	checker.RegisterHandlers(mux)
package health
