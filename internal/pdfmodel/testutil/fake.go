// Package testutil provides an in-memory pdfmodel.Resolver for exercising
// the Field Extractor, Executor, and Integrity Validator logic without a
// byte-accurate PDF fixture. pdfcpu's own Dereference* methods are pure
// pass-throughs for any object that is not an types.IndirectRef, so a fake
// that only resolves IndirectRef against a preloaded object table behaves
// identically to the real pdfcpu context for every test built from direct
// types.Dict/types.Array/types.Name/types.StringLiteral/types.Integer
// literals, which is how every fixture in this corpus is built.
package testutil

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// FakeResolver is a pdfmodel.Resolver backed by an in-memory object table
// and a set of synthetic pages, each with its own Annots array.
type FakeResolver struct {
	Objects     map[int]types.Object // objNum -> object, for indirect refs
	Pages       []types.Dict         // 1-based via index+1
	AcroFields  types.Array
	nextObjNum  int
}

// NewFakeResolver returns an empty resolver; use Ref/AddPage to populate it.
func NewFakeResolver() *FakeResolver {
	return &FakeResolver{Objects: map[int]types.Object{}, nextObjNum: 1}
}

// Ref registers obj in the object table and returns an indirect reference
// to it, mimicking how a real PDF would store a shared or page-referenced
// object.
func (f *FakeResolver) Ref(obj types.Object) types.IndirectRef {
	num := f.nextObjNum
	f.nextObjNum++
	f.Objects[num] = obj
	return types.IndirectRef{ObjectNumber: num, GenerationNumber: 0}
}

// AddPage appends a page dictionary and returns its 1-based page number.
func (f *FakeResolver) AddPage(annots types.Array) int {
	dict := types.Dict{}
	if annots != nil {
		dict["Annots"] = annots
	}
	f.Pages = append(f.Pages, dict)
	return len(f.Pages)
}

func (f *FakeResolver) resolve(obj types.Object) (types.Object, error) {
	ref, isIndirect := obj.(types.IndirectRef)
	if !isIndirect {
		return obj, nil
	}
	resolved, ok := f.Objects[ref.ObjectNumber]
	if !ok {
		return nil, fmt.Errorf("unknown object %d", ref.ObjectNumber)
	}
	return resolved, nil
}

func (f *FakeResolver) DereferenceDict(obj types.Object) (types.Dict, error) {
	resolved, err := f.resolve(obj)
	if err != nil {
		return nil, err
	}
	dict, ok := resolved.(types.Dict)
	if !ok {
		return nil, fmt.Errorf("not a dict: %T", resolved)
	}
	return dict, nil
}

func (f *FakeResolver) DereferenceArray(obj types.Object) (types.Array, error) {
	resolved, err := f.resolve(obj)
	if err != nil {
		return nil, err
	}
	arr, ok := resolved.(types.Array)
	if !ok {
		return nil, fmt.Errorf("not an array: %T", resolved)
	}
	return arr, nil
}

func (f *FakeResolver) DereferenceName(obj types.Object) (string, error) {
	resolved, err := f.resolve(obj)
	if err != nil {
		return "", err
	}
	name, ok := resolved.(types.Name)
	if !ok {
		return "", fmt.Errorf("not a name: %T", resolved)
	}
	return name.Value(), nil
}

func (f *FakeResolver) DereferenceStringOrHexLiteral(obj types.Object) (string, error) {
	resolved, err := f.resolve(obj)
	if err != nil {
		return "", err
	}
	switch v := resolved.(type) {
	case types.StringLiteral:
		return v.Value(), nil
	case types.HexLiteral:
		return v.Value(), nil
	case types.Name:
		return v.Value(), nil
	default:
		return "", fmt.Errorf("not a string: %T", resolved)
	}
}

func (f *FakeResolver) DereferenceInteger(obj types.Object) (*int, error) {
	resolved, err := f.resolve(obj)
	if err != nil {
		return nil, err
	}
	i, ok := resolved.(types.Integer)
	if !ok {
		return nil, fmt.Errorf("not an integer: %T", resolved)
	}
	v := int(i)
	return &v, nil
}

func (f *FakeResolver) DereferenceNumber(obj types.Object) (float64, error) {
	resolved, err := f.resolve(obj)
	if err != nil {
		return 0, err
	}
	switch v := resolved.(type) {
	case types.Integer:
		return float64(v), nil
	case types.Float:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("not a number: %T", resolved)
	}
}

func (f *FakeResolver) PageDict(pageNum int) (types.Dict, error) {
	if pageNum < 1 || pageNum > len(f.Pages) {
		return nil, fmt.Errorf("no such page: %d", pageNum)
	}
	return f.Pages[pageNum-1], nil
}

func (f *FakeResolver) PageCount() int {
	return len(f.Pages)
}

func (f *FakeResolver) FindAnnotationPage(obj types.Object) (int, bool) {
	ref, isIndirect := obj.(types.IndirectRef)
	if !isIndirect {
		return 0, false
	}
	for p, page := range f.Pages {
		annotsObj, found := page["Annots"]
		if !found {
			continue
		}
		annotsArr, ok := annotsObj.(types.Array)
		if !ok {
			continue
		}
		for _, a := range annotsArr {
			if aRef, ok := a.(types.IndirectRef); ok && aRef.ObjectNumber == ref.ObjectNumber {
				return p + 1, true
			}
		}
	}
	return 0, false
}

func (f *FakeResolver) AcroFormFields() (types.Array, error) {
	return f.AcroFields, nil
}
