// Package errors provides structured, actionable error messages for the
// render engine.
//
// Every failure the pipeline can surface maps to a coded template that
// carries a category, a plain-language explanation and a documentation
// link. The boundary renders these as a developer error page in dev mode
// and the diagnostics channel broadcasts them to editor tooling.
//
// # Error Categories
//
//   - scan: component-call scanning failures (unknown ids, call cycles)
//   - script: logic invocation failures, including missing handlers
//   - template: template engine failures
//   - request: malformed inbound requests
//   - pool: script worker dispatch failures
//   - admission: load-shedding rejections
//   - config: configuration file problems
//   - routing: route table compilation problems
//
// # Usage
//
//	err := errors.New("E020").
//	    WithLocation("components/counter/counter.html", 4, 0).
//	    WithSuggestion("Check the component folder name")
//
//	fmt.Println(err.Format())
package errors
