// xacmlcore evaluates XACML rule conditions from the command line.
//
// Rule documents are YAML files whose conditions are built from the standard
// XACML function catalog. The command loads them, checks them and evaluates
// decision requests against them.
//
// Usage:
//
//	# List the available functions
//	xacmlcore functions
//
//	# Check rule documents
//	xacmlcore validate --rules rules/
//
//	# Evaluate a request
//	xacmlcore eval --rules rules/ --request request.yaml
//
//	# Keep rules loaded, reload on change and serve metrics
//	xacmlcore watch --rules rules/ --metrics-addr :9090
//
//	# Show version information
//	xacmlcore version
package main

func main() {
	Execute()
}
