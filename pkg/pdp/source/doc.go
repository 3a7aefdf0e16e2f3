// Package source provides rule sources for the decision engine.
//
// A FileSource loads YAML rule documents from a file or directory and
// watches them with fsnotify:
//
//	p := parser.NewParser(registry)
//	src := source.NewFileSource("rules/", p, logger)
//	engine, err := pdp.NewEngine(pdp.DefaultEngineConfig().WithWatch(true), src)
//
// File system events are debounced, so an editor saving a file several
// times in a row triggers one reload.
//
// A MemorySource serves rule sets built in code:
//
//	src := source.NewMemorySource(ruleSets...)
//	src.Set(updated...) // watching engines reload
package source
