// Package parser loads YAML rule documents into expression trees.
//
// A document declares shared variables and rules. Each rule has an effect
// and an optional boolean condition built from expression nodes:
//
//	name: records
//	variables:
//	  is-doctor:
//	    apply: string-is-in
//	    args:
//	      - doctor
//	      - designator: {category: access-subject, id: role, must_be_present: true}
//	rules:
//	  - id: doctors-read
//	    effect: Permit
//	    condition:
//	      - variable: is-doctor
//	      - apply: string-equal
//	        args:
//	          - read
//	          - apply: string-one-and-only
//	            args: [{designator: {category: action, id: action-id}}]
//
// Expression nodes:
//
//   - a bare scalar is a constant typed by its YAML tag (string, boolean,
//     integer or double)
//   - value: <lexical>, datatype: <name> is a constant of any datatype
//   - bag: [<lexical>...], datatype: <name> is a constant bag
//   - designator: {category, id, datatype, issuer, must_be_present}
//   - variable: <name>
//   - function: <id> is a function reference for higher-order functions
//   - apply: <id>, args: [...] is a function call
//
// Function identifiers may omit the standard URN prefix. A condition given
// as a list is the conjunction of its items.
//
// Loading never stops at the first problem: every error is collected into
// an ErrorList with source locations, and a document with any error is
// rejected as a whole.
//
//	p := parser.NewParser(registry).WithMaxDepth(16)
//	policy, err := p.Parse("rules/records.yaml")
//	if err != nil {
//	    var list *parser.ErrorList
//	    if errors.As(err, &list) {
//	        for _, e := range list.Errors {
//	            fmt.Println(e.Location, e.Message)
//	        }
//	    }
//	}
package parser
