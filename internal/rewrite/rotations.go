package rewrite

import "github.com/tamatch/tamatch/internal/ast"

// rotateLeft rotates a right-leaning BinaryExpr one step left:
//
//	Binary(A, op1, Binary(B, op2, C))  ->  Binary(Binary(A, op1, B), op2, C)
//
// It also handles the unary-over-binary special case:
//
//	Unary(U, Binary(L, B, R))  ->  Binary(Unary(U, L), B, R)
//
// Nodes that don't match either shape are returned unchanged.
func rotateLeft(node ast.Node) ast.Node {
	switch n := node.(type) {
	case *ast.UnaryExpr:
		if inner, ok := n.Expr.(*ast.BinaryExpr); ok {
			return &ast.BinaryExpr{
				Op:    inner.Op,
				Left:  &ast.UnaryExpr{Op: n.Op, Expr: inner.Left},
				Right: inner.Right,
			}
		}
		return node
	case *ast.BinaryExpr:
		right, ok := n.Right.(*ast.BinaryExpr)
		if !ok {
			return node
		}
		return &ast.BinaryExpr{
			Op:    right.Op,
			Left:  &ast.BinaryExpr{Op: n.Op, Left: n.Left, Right: right.Left},
			Right: right.Right,
		}
	default:
		return node
	}
}

// rotateRight is the inverse of rotateLeft's binary case:
//
//	Binary(Binary(A, op1, B), op2, C)  ->  Binary(A, op1, Binary(B, op2, C))
//
// Any other node, including a UnaryExpr, is returned unchanged.
func rotateRight(node ast.Node) ast.Node {
	n, ok := node.(*ast.BinaryExpr)
	if !ok {
		return node
	}
	left, ok := n.Left.(*ast.BinaryExpr)
	if !ok {
		return node
	}
	return &ast.BinaryExpr{
		Op:    left.Op,
		Left:  left.Left,
		Right: &ast.BinaryExpr{Op: n.Op, Left: left.Right, Right: n.Right},
	}
}

// rotateLeftWhileAssocPrec repeatedly applies rotateLeft while the node is a
// BinaryExpr whose right child is a BinaryExpr in the same precedence and
// associativity group (ast.SameGroup), normalizing a right-leaning chain of
// same-group operators into the left-leaning shape the rest of the package
// expects canonical trees to have. A UnaryExpr over a BinaryExpr instead
// gets the single unary-over-binary rotation and is returned without
// entering the loop.
func rotateLeftWhileAssocPrec(node ast.Node) ast.Node {
	if u, ok := node.(*ast.UnaryExpr); ok {
		if _, ok := u.Expr.(*ast.BinaryExpr); ok {
			return rotateLeft(node)
		}
		return node
	}
	for {
		n, ok := node.(*ast.BinaryExpr)
		if !ok {
			return node
		}
		right, ok := n.Right.(*ast.BinaryExpr)
		if !ok || !ast.SameGroup(n.Op, right.Op) {
			return node
		}
		node = rotateLeft(node)
	}
}

// RotateLeftVisit wraps rotateLeft as a VisitFunc for use with Walk.
func RotateLeftVisit(node ast.Node, _ *Accumulator) ast.Node { return rotateLeft(node) }

// RotateRightVisit wraps rotateRight as a VisitFunc for use with Walk.
func RotateRightVisit(node ast.Node, _ *Accumulator) ast.Node { return rotateRight(node) }

// NormalizeAssocPrec wraps rotateLeftWhileAssocPrec as a VisitFunc; applying
// it post-order over a whole tree via Walk brings every same-group operator
// chain into canonical left-leaning form, bottom-up.
func NormalizeAssocPrec(node ast.Node, _ *Accumulator) ast.Node {
	return rotateLeftWhileAssocPrec(node)
}
