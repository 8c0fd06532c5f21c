package driver

import (
	"context"
	"testing"
	"time"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/source"
	"quill/internal/types"
)

func sp(start, end uint32) source.Span {
	return source.Span{Start: start, End: end}
}

func named(name string) ast.TypeExpr {
	return ast.Named(name, source.Span{})
}

func intLit(v int64) ast.Effect {
	return ast.Effect{Kind: ast.EffectIntLiteral, Int: v}
}

func strLit(s string) ast.Effect {
	return ast.Effect{Kind: ast.EffectStringLiteral, Str: s}
}

func loadVar(name string) ast.Effect {
	return ast.Effect{Kind: ast.EffectLoadVariable, Name: name}
}

func call(name string, args ...ast.Effect) ast.Effect {
	return ast.Effect{Kind: ast.EffectFunctionCall, Name: name, Args: args}
}

func implCall(trait, method string, recv ast.Effect) ast.Effect {
	return ast.Effect{Kind: ast.EffectImplCall, Trait: trait, Name: method, Receiver: &recv}
}

func implCallReturning(trait, method string, recv ast.Effect, returning ast.TypeExpr) ast.Effect {
	eff := implCall(trait, method, recv)
	eff.Returning = &returning
	return eff
}

func staticTraitCall(trait, method string) ast.Effect {
	return ast.Effect{Kind: ast.EffectImplCall, Trait: trait, Name: method}
}

func line(eff ast.Effect) ast.Expression {
	return ast.Expression{Kind: ast.ExprLine, Effect: eff}
}

func ret(eff ast.Effect) ast.Expression {
	return ast.Expression{Kind: ast.ExprReturn, Effect: eff}
}

func body(exprs ...ast.Expression) ast.CodeBody {
	return ast.CodeBody{Expressions: exprs}
}

// runCheck runs the whole pipeline with a timeout so a liveness bug fails
// the test instead of hanging it.
func runCheck(t *testing.T, bundle *ast.Bundle) *Output {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	out, err := CheckProgram(ctx, bundle, Options{})
	if err != nil {
		t.Fatalf("CheckProgram failed: %v", err)
	}
	return out
}

func findFn(t *testing.T, out *Output, name string) *types.FinalizedFunction {
	t.Helper()
	for _, fn := range out.Functions {
		if fn.Data.Name == name {
			return fn
		}
	}
	t.Fatalf("function %q not in output", name)
	return nil
}

func errCodes(out *Output) []diag.Code {
	var codes []diag.Code
	for _, d := range out.Bag.Items() {
		codes = append(codes, d.Code)
	}
	return codes
}

func wantNoErrors(t *testing.T, out *Output) {
	t.Helper()
	if out.Bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", out.Bag.Items())
	}
}

func wantOneError(t *testing.T, out *Output, code diag.Code) {
	t.Helper()
	codes := errCodes(out)
	if len(codes) != 1 || codes[0] != code {
		t.Fatalf("diagnostics = %v, want exactly one %s", out.Bag.Items(), code)
	}
}

func TestForwardReferenceResolves(t *testing.T) {
	// caller appears before callee in the bundle; the body must wait for
	// callee's signature instead of failing.
	bundle := &ast.Bundle{
		Functions: []ast.Function{
			{
				Name: "caller",
				Body: body(line(call("callee"))),
				Span: sp(0, 10),
			},
			{
				Name:   "callee",
				Return: ptr(named("i64")),
				Body:   body(ret(intLit(1))),
				Span:   sp(20, 30),
			},
		},
	}
	out := runCheck(t, bundle)
	wantNoErrors(t, out)

	caller := findFn(t, out, "caller")
	eff := caller.Body.Expressions[0].Effect
	if eff.Kind != types.EffCall || eff.Target.Data.Name != "callee" {
		t.Fatalf("caller's first effect = kind %d target %v", eff.Kind, eff.Target)
	}
	if eff.Type.String() != "i64" {
		t.Fatalf("call type = %s, want i64", eff.Type)
	}
}

func TestCyclicStructReferences(t *testing.T) {
	bundle := &ast.Bundle{
		Structs: []ast.Struct{
			{
				Name: "Node",
				Fields: []ast.Field{
					{Name: "next", Type: ast.Ref(named("Node"))},
					{Name: "value", Type: named("i64")},
				},
				Span: sp(0, 10),
			},
			{
				Name:   "Left",
				Fields: []ast.Field{{Name: "other", Type: ast.Ref(named("Right"))}},
				Span:   sp(20, 30),
			},
			{
				Name:   "Right",
				Fields: []ast.Field{{Name: "other", Type: ast.Ref(named("Left"))}},
				Span:   sp(40, 50),
			},
		},
	}
	out := runCheck(t, bundle)
	wantNoErrors(t, out)

	for _, st := range out.Structs {
		if st.Data.Name == "Node" {
			if got := st.Fields[0].Type.String(); got != "&Node" {
				t.Fatalf("Node.next type = %s, want &Node", got)
			}
			return
		}
	}
	t.Fatal("Node not finalized")
}

func TestUnknownFieldTypePoisonsStruct(t *testing.T) {
	bundle := &ast.Bundle{
		Structs: []ast.Struct{
			{
				Name:   "Broken",
				Fields: []ast.Field{{Name: "x", Type: named("Bogus")}},
				Span:   sp(0, 10),
			},
		},
		Functions: []ast.Function{
			{Name: "fine", Body: body(), Span: sp(20, 30)},
		},
	}
	out := runCheck(t, bundle)
	wantOneError(t, out, diag.ResUnknownName)

	if len(out.Structs) != 1 || out.Structs[0].Data.Name != "Broken" {
		t.Fatalf("poisoned struct missing from output: %v", out.Structs)
	}
	if !out.Structs[0].Data.IsPoisoned() {
		t.Fatal("Broken should be poisoned")
	}
	if out.Structs[0].Fields[0].Type.Kind != types.KindInvalid {
		t.Fatalf("poisoned field type = %s", out.Structs[0].Fields[0].Type)
	}
	// Unrelated checking continues past the poisoned struct.
	findFn(t, out, "fine")
}

func TestImplicitReturnInsertion(t *testing.T) {
	bundle := &ast.Bundle{
		Functions: []ast.Function{
			{Name: "noop", Body: body(line(ast.NOP(sp(1, 2)))), Span: sp(0, 10)},
		},
	}
	out := runCheck(t, bundle)
	wantNoErrors(t, out)

	fn := findFn(t, out, "noop")
	if !fn.Body.Returns {
		t.Fatal("void body should be completed with a return")
	}
	last := fn.Body.Expressions[len(fn.Body.Expressions)-1]
	if last.Kind != ast.ExprReturn || last.Effect.Kind != types.EffNOP {
		t.Fatalf("last expression = %+v, want synthesized NOP return", last)
	}
}

func TestMissingReturnReported(t *testing.T) {
	bundle := &ast.Bundle{
		Functions: []ast.Function{
			{
				Name:   "bad",
				Return: ptr(named("i64")),
				Body:   body(line(intLit(1))),
				Span:   sp(0, 10),
			},
			{
				Name:   "good",
				Return: ptr(named("i64")),
				Body:   body(ret(intLit(2))),
				Span:   sp(20, 30),
			},
		},
	}
	out := runCheck(t, bundle)
	wantOneError(t, out, diag.ChkIncompleteReturn)

	// The failing function still yields a placeholder and the rest of the
	// program is checked.
	if len(out.Functions) != 2 {
		t.Fatalf("finalized %d functions, want 2", len(out.Functions))
	}
	findFn(t, out, "good")
}

func TestArgumentMismatchReported(t *testing.T) {
	bundle := &ast.Bundle{
		Functions: []ast.Function{
			{
				Name:      "unary",
				Arguments: []ast.Field{{Name: "x", Type: named("i64")}},
				Body:      body(),
				Span:      sp(0, 10),
			},
			{
				Name: "use",
				Body: body(line(call("unary"))),
				Span: sp(20, 30),
			},
		},
	}
	out := runCheck(t, bundle)
	wantOneError(t, out, diag.ChkArgumentMismatch)
}

// shapeTrait returns a Shape trait with two abstract methods, so slot
// positions are observable.
func shapeTrait() ([]ast.Struct, []ast.Function) {
	structs := []ast.Struct{
		{
			Modifiers: ast.ModTrait,
			Name:      "Shape",
			Functions: []string{"Shape::area", "Shape::perimeter"},
			Span:      sp(0, 10),
		},
	}
	functions := []ast.Function{
		{
			Modifiers: ast.ModTrait,
			Name:      "Shape::area",
			Arguments: []ast.Field{{Name: "this", Type: named("Shape")}},
			Return:    ptr(named("i64")),
			Span:      sp(12, 20),
		},
		{
			Modifiers: ast.ModTrait,
			Name:      "Shape::perimeter",
			Arguments: []ast.Field{{Name: "this", Type: named("Shape")}},
			Return:    ptr(named("i64")),
			Span:      sp(22, 30),
		},
	}
	return structs, functions
}

func TestVirtualDispatchUsesDeclarationSlot(t *testing.T) {
	structs, functions := shapeTrait()
	structs = append(structs, ast.Struct{
		Name:   "Circle",
		Traits: []string{"Shape"},
		Span:   sp(40, 50),
	})
	functions = append(functions, ast.Function{
		Name:      "use",
		Arguments: []ast.Field{{Name: "c", Type: named("Circle")}},
		Body:      body(line(implCall("Shape", "Shape::perimeter", loadVar("c")))),
		Span:      sp(60, 70),
	})

	out := runCheck(t, &ast.Bundle{Structs: structs, Functions: functions})
	wantNoErrors(t, out)

	eff := findFn(t, out, "use").Body.Expressions[0].Effect
	if eff.Kind != types.EffVirtualCall {
		t.Fatalf("effect kind = %d, want virtual call", eff.Kind)
	}
	if eff.Slot != 1 {
		t.Fatalf("slot = %d, want 1 (perimeter is the second trait method)", eff.Slot)
	}
	if eff.Target.Data.Name != "Shape::perimeter" {
		t.Fatalf("target = %s", eff.Target.Data.Name)
	}
}

func TestGenericReceiverDefersDispatch(t *testing.T) {
	structs, functions := shapeTrait()
	functions = append(functions, ast.Function{
		Name:     "use",
		Generics: []ast.GenericParam{{Name: "T", Bounds: []ast.TypeExpr{named("Shape")}}},
		Arguments: []ast.Field{
			{Name: "x", Type: named("T")},
		},
		Body: body(line(implCall("Shape", "area", loadVar("x")))),
		Span: sp(60, 70),
	})

	out := runCheck(t, &ast.Bundle{Structs: structs, Functions: functions})
	wantNoErrors(t, out)

	eff := findFn(t, out, "use").Body.Expressions[0].Effect
	if eff.Kind != types.EffGenericVirtualCall {
		t.Fatalf("effect kind = %d, want generic virtual call", eff.Kind)
	}
	if eff.Slot != 0 || eff.Base == nil || eff.Base.Data.Name != "Shape::area" {
		t.Fatalf("slot %d base %v, want slot 0 of Shape::area", eff.Slot, eff.Base)
	}
}

func TestConcreteReceiverSpecializesMethod(t *testing.T) {
	structs, functions := shapeTrait()
	structs = append(structs, ast.Struct{
		Name:      "Circle",
		Traits:    []string{"Shape"},
		Functions: []string{"Circle::area"},
		Span:      sp(40, 50),
	})
	functions = append(functions,
		ast.Function{
			Name:      "Circle::area",
			Arguments: []ast.Field{{Name: "self", Type: named("Circle")}},
			Return:    ptr(named("i64")),
			Body:      body(ret(intLit(3))),
			Span:      sp(52, 58),
		},
		ast.Function{
			Name:      "use",
			Arguments: []ast.Field{{Name: "c", Type: named("Circle")}},
			Body:      body(line(implCall("Shape", "area", loadVar("c")))),
			Span:      sp(60, 70),
		},
	)

	out := runCheck(t, &ast.Bundle{Structs: structs, Functions: functions})
	wantNoErrors(t, out)

	eff := findFn(t, out, "use").Body.Expressions[0].Effect
	if eff.Kind != types.EffVirtualCall {
		t.Fatalf("effect kind = %d, want virtual call", eff.Kind)
	}
	if eff.Target.Data.Name != "Circle::area$Circle" {
		t.Fatalf("target = %s, want the specialized header", eff.Target.Data.Name)
	}
	if eff.Type.String() != "i64" {
		t.Fatalf("call type = %s, want i64", eff.Type)
	}
}

// greeterBundle builds a trait with two independent implementations and one
// function whose body performs callEff on a Circle-typed argument.
func greeterBundle(circleFirst bool, callEff ast.Effect) *ast.Bundle {
	impls := []ast.Impl{
		{
			Target: named("Circle"),
			Trait:  named("Greeter"),
			Functions: []ast.Function{{
				Name:      "Circle::greet",
				Arguments: []ast.Field{{Name: "self", Type: named("Circle")}},
				Return:    ptr(named("str")),
				Body:      body(ret(strLit("circle"))),
				Span:      sp(30, 38),
			}},
			Span: sp(30, 40),
		},
		{
			Target: named("Square"),
			Trait:  named("Greeter"),
			Functions: []ast.Function{{
				Name:      "Square::greet",
				Arguments: []ast.Field{{Name: "self", Type: named("Square")}},
				Return:    ptr(named("str")),
				Body:      body(ret(strLit("square"))),
				Span:      sp(42, 48),
			}},
			Span: sp(42, 50),
		},
	}
	if !circleFirst {
		impls[0], impls[1] = impls[1], impls[0]
	}
	return &ast.Bundle{
		Structs: []ast.Struct{
			{Modifiers: ast.ModTrait, Name: "Greeter", Span: sp(0, 8)},
			{Name: "Circle", Span: sp(10, 16)},
			{Name: "Square", Span: sp(18, 24)},
		},
		Functions: []ast.Function{{
			Name:      "use",
			Arguments: []ast.Field{{Name: "c", Type: named("Circle")}},
			Body:      body(line(callEff)),
			Span:      sp(60, 70),
		}},
		Impls: impls,
	}
}

func TestImplementationSearchMatchesReceiver(t *testing.T) {
	for _, circleFirst := range []bool{true, false} {
		out := runCheck(t, greeterBundle(circleFirst, implCall("Greeter", "greet", loadVar("c"))))
		wantNoErrors(t, out)

		eff := findFn(t, out, "use").Body.Expressions[0].Effect
		if eff.Kind != types.EffCall {
			t.Fatalf("circleFirst=%v: effect kind = %d, want direct call", circleFirst, eff.Kind)
		}
		if eff.Target.Data.Name != "Circle::greet" {
			t.Fatalf("circleFirst=%v: dispatched to %s, want Circle::greet",
				circleFirst, eff.Target.Data.Name)
		}
	}
}

func TestEmptyMethodNameResolvesUniqueMethod(t *testing.T) {
	// An empty method name means "whichever method binds"; it never matches
	// the virtual surface and is resolved by implementation search.
	out := runCheck(t, greeterBundle(true, implCall("Greeter", "", loadVar("c"))))
	wantNoErrors(t, out)

	eff := findFn(t, out, "use").Body.Expressions[0].Effect
	if eff.Kind != types.EffCall || eff.Target.Data.Name != "Circle::greet" {
		t.Fatalf("effect = kind %d target %v, want direct call to Circle::greet",
			eff.Kind, eff.Target)
	}
}

func TestExplicitReturnAnnotationAccepted(t *testing.T) {
	callEff := implCallReturning("Greeter", "greet", loadVar("c"), named("str"))
	out := runCheck(t, greeterBundle(true, callEff))
	wantNoErrors(t, out)

	eff := findFn(t, out, "use").Body.Expressions[0].Effect
	if eff.Kind != types.EffCall || eff.Target.Data.Name != "Circle::greet" {
		t.Fatalf("effect = kind %d target %v", eff.Kind, eff.Target)
	}
	if eff.Type.String() != "str" {
		t.Fatalf("call type = %s, want str", eff.Type)
	}
}

func TestExplicitReturnAnnotationRejectsCandidate(t *testing.T) {
	// Circle::greet returns str; pinning the call to i64 disqualifies the
	// only candidate, so the search exhausts and reports no implementation.
	callEff := implCallReturning("Greeter", "greet", loadVar("c"), named("i64"))
	out := runCheck(t, greeterBundle(true, callEff))
	wantOneError(t, out, diag.ResNoImplementation)
}

func TestStaticTraitCallSearchesOnVoid(t *testing.T) {
	// A receiverless trait call searches for an implementation on void.
	bundle := &ast.Bundle{
		Structs: []ast.Struct{
			{Modifiers: ast.ModTrait, Name: "Maker", Span: sp(0, 8)},
		},
		Functions: []ast.Function{{
			Name: "use",
			Body: body(line(staticTraitCall("Maker", "make"))),
			Span: sp(40, 50),
		}},
		Impls: []ast.Impl{{
			Target: named("void"),
			Trait:  named("Maker"),
			Functions: []ast.Function{{
				Name:   "void::make",
				Return: ptr(named("i64")),
				Body:   body(ret(intLit(7))),
				Span:   sp(10, 18),
			}},
			Span: sp(10, 20),
		}},
	}
	out := runCheck(t, bundle)
	wantNoErrors(t, out)

	eff := findFn(t, out, "use").Body.Expressions[0].Effect
	if eff.Kind != types.EffCall || eff.Target.Data.Name != "void::make" {
		t.Fatalf("effect = kind %d target %v, want direct call to void::make",
			eff.Kind, eff.Target)
	}
	if eff.Type.String() != "i64" {
		t.Fatalf("call type = %s, want i64", eff.Type)
	}
}

func TestAmbiguousMethodReported(t *testing.T) {
	bundle := &ast.Bundle{
		Structs: []ast.Struct{
			{
				Modifiers: ast.ModTrait,
				Name:      "Printer",
				Functions: []string{"Printer::show"},
				Span:      sp(0, 8),
			},
			{
				Name:      "Doc",
				Traits:    []string{"Printer"},
				Functions: []string{"A::show", "B::show"},
				Span:      sp(10, 18),
			},
		},
		Functions: []ast.Function{
			{
				Modifiers: ast.ModTrait,
				Name:      "Printer::show",
				Arguments: []ast.Field{{Name: "this", Type: named("Printer")}},
				Span:      sp(20, 28),
			},
			{
				Name:      "A::show",
				Arguments: []ast.Field{{Name: "self", Type: named("Doc")}},
				Body:      body(),
				Span:      sp(30, 38),
			},
			{
				Name:      "B::show",
				Arguments: []ast.Field{{Name: "self", Type: named("Doc")}},
				Body:      body(),
				Span:      sp(40, 48),
			},
			{
				Name:      "use",
				Arguments: []ast.Field{{Name: "d", Type: named("Doc")}},
				Body:      body(line(implCall("Printer", "show", loadVar("d")))),
				Span:      sp(50, 58),
			},
		},
	}
	out := runCheck(t, bundle)
	wantOneError(t, out, diag.ResAmbiguousMethod)
}

func TestNoImplementationTerminates(t *testing.T) {
	bundle := &ast.Bundle{
		Structs: []ast.Struct{
			{Modifiers: ast.ModTrait, Name: "Greeter", Span: sp(0, 8)},
			{Name: "Lonely", Span: sp(10, 16)},
		},
		Functions: []ast.Function{{
			Name:      "use",
			Arguments: []ast.Field{{Name: "l", Type: named("Lonely")}},
			Body:      body(line(implCall("Greeter", "greet", loadVar("l")))),
			Span:      sp(20, 30),
		}},
	}
	out := runCheck(t, bundle)
	wantOneError(t, out, diag.ResNoImplementation)
}

func TestUnknownTraitReported(t *testing.T) {
	bundle := &ast.Bundle{
		Structs: []ast.Struct{{Name: "Thing", Span: sp(0, 8)}},
		Functions: []ast.Function{{
			Name:      "use",
			Arguments: []ast.Field{{Name: "x", Type: named("Thing")}},
			Body:      body(line(implCall("Nope", "frob", loadVar("x")))),
			Span:      sp(10, 20),
		}},
	}
	out := runCheck(t, bundle)
	wantOneError(t, out, diag.ResUnknownName)
}

func ptr(t ast.TypeExpr) *ast.TypeExpr {
	return &t
}
