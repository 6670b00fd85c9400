package expr

// Visitor dispatches on expression variant and returns a replacement
// expression, letting rewrite passes swap nodes out during traversal.
// BaseVisitor gives every method an identity implementation so callers
// can embed it and override only the variants they care about, the same
// shape as expression.cpp's default ExpressionVisitor.
type Visitor interface {
	VisitBitVector(*BitVectorExpr) Expression
	VisitIdentifier(*IdentifierExpr) Expression
	VisitVectorIdentifier(*VectorIdentifierExpr) Expression
	VisitMemory(*MemoryExpr) Expression
	VisitUnaryOp(*UnaryOpExpr) Expression
	VisitBinaryOp(*BinaryOpExpr) Expression
	VisitAssignment(*AssignmentExpr) Expression
	VisitTernaryCondition(*TernaryConditionExpr) Expression
	VisitIfElseCondition(*IfElseConditionExpr) Expression
	VisitWhileCondition(*WhileConditionExpr) Expression
	VisitBind(*BindExpr) Expression
	VisitVariable(*VariableExpr) Expression
	VisitTrack(*TrackExpr) Expression
	VisitSymbolic(*SymbolicExpr) Expression
	VisitSystem(*SystemExpr) Expression
}

// BaseVisitor implements Visitor with identity methods; embed it and
// override the variants a given pass needs to rewrite.
type BaseVisitor struct{}

func (BaseVisitor) VisitBitVector(e *BitVectorExpr) Expression                     { return e }
func (BaseVisitor) VisitIdentifier(e *IdentifierExpr) Expression                   { return e }
func (BaseVisitor) VisitVectorIdentifier(e *VectorIdentifierExpr) Expression       { return e }
func (BaseVisitor) VisitMemory(e *MemoryExpr) Expression                           { return e }
func (BaseVisitor) VisitUnaryOp(e *UnaryOpExpr) Expression                         { return e }
func (BaseVisitor) VisitBinaryOp(e *BinaryOpExpr) Expression                       { return e }
func (BaseVisitor) VisitAssignment(e *AssignmentExpr) Expression                   { return e }
func (BaseVisitor) VisitTernaryCondition(e *TernaryConditionExpr) Expression       { return e }
func (BaseVisitor) VisitIfElseCondition(e *IfElseConditionExpr) Expression         { return e }
func (BaseVisitor) VisitWhileCondition(e *WhileConditionExpr) Expression           { return e }
func (BaseVisitor) VisitBind(e *BindExpr) Expression                               { return e }
func (BaseVisitor) VisitVariable(e *VariableExpr) Expression                       { return e }
func (BaseVisitor) VisitTrack(e *TrackExpr) Expression                             { return e }
func (BaseVisitor) VisitSymbolic(e *SymbolicExpr) Expression                       { return e }
func (BaseVisitor) VisitSystem(e *SystemExpr) Expression                           { return e }
