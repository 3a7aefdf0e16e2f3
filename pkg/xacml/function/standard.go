package function

// StandardFunctions returns the non-generic functions of the standard
// catalog. Each call returns fresh instances.
func StandardFunctions() []Function {
	var fns []Function
	fns = append(fns, logicalFunctions()...)
	fns = append(fns, equalityFunctions()...)
	fns = append(fns, numericFunctions()...)
	fns = append(fns, comparisonFunctions()...)
	fns = append(fns, stringFunctions()...)
	fns = append(fns, conversionFunctions()...)
	fns = append(fns, temporalFunctions()...)
	fns = append(fns, matchFunctions()...)
	fns = append(fns, bagFunctions()...)
	fns = append(fns, setFunctions()...)
	fns = append(fns, higherOrderFunctions()...)
	return fns
}

// StandardGenerics returns the generic functions of the standard catalog.
func StandardGenerics() []GenericFactory {
	return []GenericFactory{mapFactory{}}
}
