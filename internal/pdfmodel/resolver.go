package pdfmodel

import "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

// Resolver is the read-only object-graph surface the Field Extractor,
// Executor, and Integrity Validator traverse (the Context Extractor reads
// page text through its own PageTextSource instead). *Document implements it directly over
// a live pdfcpu context; tests substitute an in-memory fake so that the
// pure traversal logic in those components can be exercised without a
// byte-accurate PDF fixture, since pdfcpu's own Dereference* functions are
// themselves pure pass-throughs for any object that is not an indirect
// reference.
type Resolver interface {
	DereferenceDict(obj types.Object) (types.Dict, error)
	DereferenceArray(obj types.Object) (types.Array, error)
	DereferenceName(obj types.Object) (string, error)
	DereferenceStringOrHexLiteral(obj types.Object) (string, error)
	DereferenceInteger(obj types.Object) (*int, error)
	DereferenceNumber(obj types.Object) (float64, error)
	PageDict(pageNum int) (types.Dict, error)
	PageCount() int
	FindAnnotationPage(obj types.Object) (page int, found bool)
	AcroFormFields() (types.Array, error)
}

var _ Resolver = (*Document)(nil)
