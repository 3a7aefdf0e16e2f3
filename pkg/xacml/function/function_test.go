package function

import (
	"errors"
	"slices"
	"strings"
	"testing"

	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
	"mercator-hq/xacmlcore/pkg/xacml/expr"
	"mercator-hq/xacmlcore/pkg/xacml/value"
)

func TestNewCall_TypeAndArityChecks(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		args    []expr.Expression
		wantErr error
	}{
		{
			name:    "too few arguments",
			id:      V1 + "integer-subtract",
			args:    dynAll(ints(1)...),
			wantErr: xerrors.ErrArity,
		},
		{
			name:    "variadic minimum",
			id:      V1 + "integer-add",
			args:    dynAll(ints(1)...),
			wantErr: xerrors.ErrArity,
		},
		{
			name:    "wrong primitive datatype",
			id:      V1 + "integer-add",
			args:    []expr.Expression{dyn(value.NewInteger(1)), dyn(value.Double(2))},
			wantErr: xerrors.ErrTypeMismatch,
		},
		{
			name:    "bag where primitive expected",
			id:      V1 + "string-equal",
			args:    []expr.Expression{dyn(value.String("a")), dyn(strBag("a"))},
			wantErr: xerrors.ErrTypeMismatch,
		},
		{
			name:    "function reference to first-order function",
			id:      V1 + "not",
			args:    []expr.Expression{NewRef(lookup(t, V1+"not"))},
			wantErr: xerrors.ErrTypeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lookup(t, tt.id).NewCall(tt.args)
			wantCode(t, err, xerrors.StatusSyntaxError)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewCall() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewCall_FoldsConstantArguments(t *testing.T) {
	c := newCall(t, V1+"integer-add", constant(value.NewInteger(1)), constant(value.NewInteger(2)))
	v, ok := c.Value()
	if !ok {
		t.Fatal("Value() should be known after folding")
	}
	if !v.Equal(value.NewInteger(3)) {
		t.Errorf("Value() = %s, want 3", v)
	}
	if len(c.Args()) != 0 {
		t.Errorf("len(Args()) = %d, want 0", len(c.Args()))
	}
}

func TestNewCall_FailingConstantIsNotFolded(t *testing.T) {
	c := newCall(t, V1+"integer-divide", constant(value.NewInteger(1)), constant(value.NewInteger(0)))
	if _, ok := c.Value(); ok {
		t.Fatal("a failing constant call must not be folded")
	}
	_, err := c.Evaluate(newCtx())
	wantCode(t, err, xerrors.StatusProcessingError)
	if !errors.Is(err, xerrors.ErrDivisionByZero) {
		t.Errorf("Evaluate() error = %v, want ErrDivisionByZero", err)
	}
}

func TestNewCall_CommutativeFolding(t *testing.T) {
	x := dyn(value.NewInteger(10))
	folded := newCall(t, V1+"integer-add", constant(value.NewInteger(2)), x, constant(value.NewInteger(3)))
	reference := newCall(t, V1+"integer-add", constant(value.NewInteger(5)), x)

	if got, want := len(folded.Args()), len(reference.Args()); got != want {
		t.Errorf("len(Args()) = %d, want %d", got, want)
	}

	ctx := newCtx()
	got, err := folded.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	want, err := reference.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if !got.Equal(want) || !got.Equal(value.NewInteger(15)) {
		t.Errorf("add(2, x, 3) = %s, add(5, x) = %s, want 15", got, want)
	}
}

func TestNewCall_DoubleArithmeticIsNotReassociated(t *testing.T) {
	c := newCall(t, V1+"double-add", constant(value.Double(0.1)), dyn(value.Double(1)), constant(value.Double(0.2)))
	if len(c.Args()) != 3 {
		t.Errorf("len(Args()) = %d, want 3", len(c.Args()))
	}
}

func TestEvaluate_WrapsArgumentFailures(t *testing.T) {
	c := newCall(t, V1+"integer-add", dyn(value.NewInteger(1)), fail(value.IntegerType, xerrors.StatusMissingAttribute))
	_, err := c.Evaluate(newCtx())
	wantCode(t, err, xerrors.StatusMissingAttribute)

	want := V1 + "integer-add: indeterminate arg #1"
	if !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not contain %q", err.Error(), want)
	}
	if chain := xerrors.Chain(err); len(chain) != 2 {
		t.Errorf("len(Chain()) = %d, want 2", len(chain))
	}
}

func TestEvaluateWith_TrailingValues(t *testing.T) {
	fn := lookup(t, V1+"string-equal")
	c, err := fn.NewCall([]expr.Expression{constant(value.String("a"))}, value.StringType)
	if err != nil {
		t.Fatalf("NewCall() failed: %v", err)
	}
	if _, ok := c.Value(); ok {
		t.Fatal("calls with trailing arguments must not be folded")
	}

	ctx := newCtx()
	v, err := c.EvaluateWith(ctx, value.String("a"))
	if err != nil {
		t.Fatalf("EvaluateWith() failed: %v", err)
	}
	if v != value.True {
		t.Errorf("EvaluateWith() = %s, want true", v)
	}

	_, err = c.EvaluateWith(ctx)
	wantCode(t, err, xerrors.StatusProcessingError)
	if !errors.Is(err, xerrors.ErrArity) {
		t.Errorf("missing trailing value: error = %v, want ErrArity", err)
	}

	_, err = c.EvaluateWith(ctx, value.NewInteger(1))
	wantCode(t, err, xerrors.StatusProcessingError)
	if !errors.Is(err, xerrors.ErrTypeMismatch) {
		t.Errorf("mistyped trailing value: error = %v, want ErrTypeMismatch", err)
	}
}

func TestRef_CannotBeEvaluated(t *testing.T) {
	ref := NewRef(lookup(t, V1+"not"))
	if ref.ReturnType() != value.FunctionType {
		t.Errorf("ReturnType() = %s", ref.ReturnType())
	}
	_, err := ref.Evaluate(newCtx())
	wantCode(t, err, xerrors.StatusProcessingError)
}

func alwaysTrue(id string) Function {
	return NewFirstOrder(Signature{ID: id, Return: value.BooleanType}, func([]value.Value) (value.Value, error) {
		return value.True, nil
	})
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	if _, err := NewRegistry([]Function{alwaysTrue("urn:example:f"), alwaysTrue("urn:example:f")}, nil); !errors.Is(err, ErrDuplicateFunction) {
		t.Errorf("duplicate plain functions: error = %v, want ErrDuplicateFunction", err)
	}
	if _, err := NewRegistry([]Function{alwaysTrue(MapID)}, []GenericFactory{mapFactory{}}); !errors.Is(err, ErrDuplicateFunction) {
		t.Errorf("duplicate across sub-registries: error = %v, want ErrDuplicateFunction", err)
	}
}

func TestNewStandardRegistry_Options(t *testing.T) {
	ext := alwaysTrue("urn:example:function:always-true")
	r, err := NewStandardRegistry(WithExclude(V1+"integer-add", MapID), WithExtensions(ext))
	if err != nil {
		t.Fatalf("NewStandardRegistry() failed: %v", err)
	}
	if _, ok := r.Lookup(V1 + "integer-add"); ok {
		t.Error("excluded function is still registered")
	}
	if _, ok := r.LookupGeneric(MapID, value.StringType); ok {
		t.Error("excluded generic is still registered")
	}
	if _, ok := r.Lookup(ext.ID()); !ok {
		t.Error("extension is not registered")
	}

	if _, err := NewStandardRegistry(WithExtensions(alwaysTrue(AndID))); !errors.Is(err, ErrDuplicateFunction) {
		t.Errorf("overriding a standard function: error = %v, want ErrDuplicateFunction", err)
	}
}

func TestRegistry_ExtendLeavesOriginalUnchanged(t *testing.T) {
	base := mustStandardRegistry()
	ext, err := base.Extend([]Function{alwaysTrue("urn:example:g")}, nil)
	if err != nil {
		t.Fatalf("Extend() failed: %v", err)
	}
	if _, ok := base.Lookup("urn:example:g"); ok {
		t.Error("Extend() modified the receiver")
	}
	if _, ok := ext.Lookup("urn:example:g"); !ok {
		t.Error("Extend() result lacks the new function")
	}
	if ext.Len() != base.Len()+1 {
		t.Errorf("Len() = %d, want %d", ext.Len(), base.Len()+1)
	}
}

func TestRegistry_IDs(t *testing.T) {
	ids := testRegistry.IDs()
	if !slices.IsSorted(ids) {
		t.Error("IDs() is not sorted")
	}
	for _, id := range []string{AndID, MapID, V1 + "string-equal", V3 + "dnsName-from-string", V2 + "ipAddress-union"} {
		if !slices.Contains(ids, id) {
			t.Errorf("IDs() lacks %s", id)
		}
	}
	if !testRegistry.IsGeneric(MapID) || testRegistry.IsGeneric(AndID) {
		t.Error("IsGeneric() mismatch")
	}
}

func TestRegistry_LookupGeneric(t *testing.T) {
	fn, ok := testRegistry.LookupGeneric(MapID, value.IntegerType)
	if !ok {
		t.Fatal("LookupGeneric(map, integer) failed")
	}
	if fn.ReturnType() != value.IntegerType.BagType() {
		t.Errorf("ReturnType() = %s, want bag(integer)", fn.ReturnType())
	}
	if _, ok := testRegistry.LookupGeneric(MapID, value.IntegerType.BagType()); ok {
		t.Error("map over a bag-returning sub-function should be rejected")
	}
	if _, ok := testRegistry.LookupGeneric(AndID, value.BooleanType); ok {
		t.Error("and is not generic")
	}
}

func TestSignature_String(t *testing.T) {
	sig := Signature{ID: "f", Return: value.BooleanType, Params: []*value.Datatype{value.IntegerType}, Variadic: value.BooleanType}
	if got, want := sig.String(), "f(integer, boolean...) -> boolean"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestSignatureOf(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{id: V1 + "string-equal", want: V1 + "string-equal(string, string) -> boolean"},
		{id: AnyOfID},
		{id: AndID},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			sig, ok := SignatureOf(lookup(t, tt.id))
			if ok != (tt.want != "") {
				t.Fatalf("SignatureOf() ok = %v, want %v", ok, tt.want != "")
			}
			if ok && sig.String() != tt.want {
				t.Errorf("signature = %q, want %q", sig.String(), tt.want)
			}
		})
	}
}
