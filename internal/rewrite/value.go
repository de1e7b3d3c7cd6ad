package rewrite

import (
	"fmt"
	"strconv"

	"github.com/tamatch/tamatch/internal/ast"
	"github.com/tamatch/tamatch/internal/xerrors"
)

// ValueToAST converts a Go value into the AST literal that represents it:
// bool->Boolean, int/int32/int64->Integer, float32/float64->Double, []interface{}
// recursively -> InitialiserArray. Any other type fails with UnsupportedAtom
//.
func ValueToAST(v interface{}) (ast.Expr, error) {
	switch x := v.(type) {
	case bool:
		return &ast.Boolean{Val: x}, nil
	case int:
		return &ast.Integer{Val: int64(x)}, nil
	case int32:
		return &ast.Integer{Val: int64(x)}, nil
	case int64:
		return &ast.Integer{Val: x}, nil
	case float32:
		return &ast.Double{Val: float64(x)}, nil
	case float64:
		return &ast.Double{Val: x}, nil
	case []interface{}:
		vals := make([]ast.Expr, len(x))
		for i, e := range x {
			ae, err := ValueToAST(e)
			if err != nil {
				return nil, err
			}
			vals[i] = ae
		}
		return &ast.InitialiserArray{Vals: vals}, nil
	default:
		return nil, &xerrors.TransformError{
			Stage:   xerrors.StageLiftDecls,
			Details: fmt.Sprintf("UnsupportedAtom: %T is not one of bool, int, float, list", v),
		}
	}
}

// declPath is the parsed shape of a variable-value target: a base name plus
// zero or more array indices, e.g. "x[2][0]" -> {Base: "x", Indices: [2, 0]}.
type declPath struct {
	Base    string
	Indices []int
}

// parseDeclPath implements the resolved lexical shape for
// adapt_variable_value_in_declaration: base matches [A-Za-z_][A-Za-z0-9_]*
// greedily (including trailing digits), followed by zero or more [digits]
// groups through end of string. It is a hand-rolled scanner rather than
// regexp so the accepted grammar is auditable in one place.
func parseDeclPath(s string) (declPath, error) {
	i := 0
	n := len(s)
	if i >= n || !isIdentStart(s[i]) {
		return declPath{}, fmt.Errorf("adapt_variable_value_in_declaration: %q does not start with an identifier", s)
	}
	start := i
	for i < n && isIdentCont(s[i]) {
		i++
	}
	base := s[start:i]

	var indices []int
	for i < n {
		if s[i] != '[' {
			return declPath{}, fmt.Errorf("adapt_variable_value_in_declaration: %q has trailing characters %q after base %q", s, s[i:], base)
		}
		i++
		digStart := i
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == digStart {
			return declPath{}, fmt.Errorf("adapt_variable_value_in_declaration: %q has an empty or non-numeric index", s)
		}
		idx, err := strconv.Atoi(s[digStart:i])
		if err != nil {
			return declPath{}, fmt.Errorf("adapt_variable_value_in_declaration: %q: %w", s, err)
		}
		if i >= n || s[i] != ']' {
			return declPath{}, fmt.Errorf("adapt_variable_value_in_declaration: %q is missing a closing ]", s)
		}
		i++
		indices = append(indices, idx)
	}
	return declPath{Base: base, Indices: indices}, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// AdaptVariableValueInDeclaration finds every VariableDecls in tree whose
// varData includes a VariableID named path's base and overwrites the
// appropriate initializer slot with value's AST encoding.
//
// With no indices, initData is replaced wholesale. With indices, all but the
// last index are used to navigate into nested InitialiserArray.Vals, and the
// final index selects the slot to overwrite; that slot must already exist
// (this never grows an InitialiserArray).
func AdaptVariableValueInDeclaration(tree ast.Node, varName string, value interface{}) (ast.Node, error) {
	path, err := parseDeclPath(varName)
	if err != nil {
		return nil, &xerrors.TransformError{Stage: xerrors.StageLiftDecls, Details: err.Error()}
	}
	newAST, err := ValueToAST(value)
	if err != nil {
		return nil, err
	}

	visit := func(node ast.Node, _ *Accumulator) ast.Node {
		decl, ok := node.(*ast.VariableDecls)
		if !ok {
			return node
		}
		changed := false
		newVarData := make([]*ast.VariableID, len(decl.VarData))
		for i, vid := range decl.VarData {
			if vid.VarName != path.Base {
				newVarData[i] = vid
				continue
			}
			replaced, err2 := applyAt(vid, path.Indices, newAST)
			if err2 != nil {
				newVarData[i] = vid
				continue
			}
			newVarData[i] = replaced
			changed = true
		}
		if !changed {
			return node
		}
		return &ast.VariableDecls{Type: decl.Type, VarData: newVarData}
	}

	result, _ := Walk(tree, visit)
	return result, nil
}

// applyAt overwrites vid.InitData at the slot addressed by indices (using
// all but the last to descend through nested InitialiserArrays, and the
// last to select the overwritten element), or replaces InitData wholesale
// when indices is empty.
func applyAt(vid *ast.VariableID, indices []int, newAST ast.Expr) (*ast.VariableID, error) {
	if len(indices) == 0 {
		return &ast.VariableID{VarName: vid.VarName, ArrayDecl: vid.ArrayDecl, InitData: newAST}, nil
	}
	root, ok := vid.InitData.(*ast.InitialiserArray)
	if !ok {
		return nil, fmt.Errorf("adapt_variable_value_in_declaration: %s has no initializer array to index into", vid.VarName)
	}
	newRoot, err := setAtPath(root, indices, newAST)
	if err != nil {
		return nil, err
	}
	return &ast.VariableID{VarName: vid.VarName, ArrayDecl: vid.ArrayDecl, InitData: newRoot}, nil
}

func setAtPath(arr *ast.InitialiserArray, indices []int, newAST ast.Expr) (*ast.InitialiserArray, error) {
	idx := indices[0]
	if idx < 0 || idx >= len(arr.Vals) {
		return nil, fmt.Errorf("adapt_variable_value_in_declaration: index %d out of range (len %d)", idx, len(arr.Vals))
	}
	vals := append([]ast.Expr{}, arr.Vals...)
	if len(indices) == 1 {
		vals[idx] = newAST
		return &ast.InitialiserArray{Vals: vals}, nil
	}
	child, ok := vals[idx].(*ast.InitialiserArray)
	if !ok {
		return nil, fmt.Errorf("adapt_variable_value_in_declaration: index %d does not hold a nested initializer", idx)
	}
	newChild, err := setAtPath(child, indices[1:], newAST)
	if err != nil {
		return nil, err
	}
	vals[idx] = newChild
	return &ast.InitialiserArray{Vals: vals}, nil
}
