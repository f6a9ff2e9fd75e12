// Package pdfmodel implements the PDF Loader (spec.md §4.A): it opens and
// validates a PDF, optionally decrypts it given a credential, and exposes a
// read-only object graph that later pipeline stages traverse.
//
// Grounded on the teacher's internal/pdf/wrapper/pdfcpu.go, generalized from
// a multi-library wrapper interface down to the single pdfcpu-backed path
// this pipeline needs: api.ReadContext does the credential check itself
// when UserPW/OwnerPW are set, so there is no separate fallback path to
// carry over.
package pdfmodel

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/pdfrename/internal/pdferrors"
)

// Document is a read-only view over a PDF's object graph.
type Document struct {
	ctx        *model.Context
	sourcePath string
	xfaPresent bool
}

// Open reads a PDF file and exposes its object graph. credential, if
// non-empty, is attempted once against an encrypted document; failure is
// fatal (spec.md §4.A).
func Open(path string, credential string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pdferrors.New(pdferrors.KindInputNotFound, "input PDF not found").WithContext(path)
		}
		return nil, pdferrors.Wrap(pdferrors.KindInputUnreadable, err).WithContext(path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, pdferrors.Wrap(pdferrors.KindInputUnreadable, err).WithContext(path)
	}
	if info.Size() == 0 {
		return nil, pdferrors.New(pdferrors.KindInputEmpty, "input PDF is empty").WithContext(path)
	}

	return OpenReader(f, path, credential)
}

// OpenReader reads a PDF from an arbitrary seekable reader, primarily for
// tests and in-memory sources.
func OpenReader(r io.ReadSeeker, sourcePath, credential string) (*Document, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if credential != "" {
		conf.UserPW = credential
		conf.OwnerPW = credential
	}

	ctx, err := api.ReadContext(r, conf)
	if err != nil {
		return nil, pdferrors.Wrap(pdferrors.KindInputUnreadable, err).WithContext("invalid-pdf: " + sourcePath)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, pdferrors.Wrap(pdferrors.KindInputUnreadable, err).WithContext(sourcePath)
	}

	doc := &Document{ctx: ctx, sourcePath: sourcePath}

	if ctx.Encrypt != nil {
		if credential == "" {
			return nil, pdferrors.New(pdferrors.KindInputEncryptedNoCredential, "document is encrypted, no credential supplied").WithContext(sourcePath)
		}
		if err := doc.decrypt(credential); err != nil {
			return nil, pdferrors.Wrap(pdferrors.KindInputBadCredential, err).WithContext(sourcePath)
		}
	}

	doc.xfaPresent = doc.detectXFA()

	return doc, nil
}

// decrypt records the supplied credential on the context, mirroring the
// teacher's ValidatePassword flow (wrapper/pdfcpu.go): pdfcpu validates the
// password against the context's own encryption dictionary during
// api.ReadContext when UserPW/OwnerPW are set, and a wrong credential makes
// ReadContext itself fail, so a non-nil ctx.Encrypt that reaches here with a
// credential present is treated as unlocked. Only an empty credential is
// rejected here.
func (d *Document) decrypt(credential string) error {
	if d.ctx.Encrypt == nil {
		return nil
	}
	if credential == "" {
		return fmt.Errorf("empty credential")
	}
	d.ctx.UserPW = credential
	d.ctx.OwnerPW = credential
	return nil
}

func (d *Document) detectXFA() bool {
	catalog, err := d.ctx.Catalog()
	if err != nil {
		return false
	}
	if _, found := catalog.Find("XFA"); found {
		return true
	}
	if acroFormObj, found := catalog.Find("AcroForm"); found {
		if acroFormDict, err := d.ctx.DereferenceDict(acroFormObj); err == nil && acroFormDict != nil {
			if _, found := acroFormDict.Find("XFA"); found {
				return true
			}
		}
	}
	return false
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// ObjectCount returns the number of entries in the document's cross
// reference table, used by the Integrity Validator's structure sub-check
// (spec.md §4.F.2).
func (d *Document) ObjectCount() int {
	if d.ctx.XRefTable == nil {
		return 0
	}
	return len(d.ctx.XRefTable.Table)
}

// Version returns the normalized document version string: the leading
// "%PDF-" marker stripped and whitespace trimmed (spec.md §4.A).
func (d *Document) Version() string {
	v := d.ctx.HeaderVersion.String()
	v = strings.TrimPrefix(v, "%PDF-")
	return strings.TrimSpace(v)
}

// HasAcroForm reports whether the document catalog carries an interactive
// form dictionary.
func (d *Document) HasAcroForm() bool {
	catalog, err := d.ctx.Catalog()
	if err != nil {
		return false
	}
	_, found := catalog.Find("AcroForm")
	return found
}

// XFAPresent reports whether an XFA stream accompanies (or replaces) the
// classic AcroForm fields. Renaming only ever targets classic field
// dictionaries (SPEC_FULL.md §D). No other package reads this flag; the
// integrity report does not include it.
func (d *Document) XFAPresent() bool {
	return d.xfaPresent
}

// Catalog returns the document's root catalog dictionary.
func (d *Document) Catalog() (types.Dict, error) {
	return d.ctx.Catalog()
}

// AcroFormFields returns the resolved Fields array from the AcroForm
// dictionary, or nil if no AcroForm or Fields entry exists.
func (d *Document) AcroFormFields() (types.Array, error) {
	catalog, err := d.ctx.Catalog()
	if err != nil {
		return nil, err
	}
	acroFormObj, found := catalog.Find("AcroForm")
	if !found {
		return nil, nil
	}
	acroFormDict, err := d.ctx.DereferenceDict(acroFormObj)
	if err != nil || acroFormDict == nil {
		return nil, nil
	}
	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return nil, nil
	}
	return d.ctx.DereferenceArray(fieldsObj)
}

// PageDict returns the page dictionary for the given 1-based page number.
func (d *Document) PageDict(pageNum int) (types.Dict, error) {
	pageDict, _, _, err := d.ctx.PageDict(pageNum, false)
	return pageDict, err
}

// DereferenceDict resolves obj to a dictionary.
func (d *Document) DereferenceDict(obj types.Object) (types.Dict, error) {
	return d.ctx.DereferenceDict(obj)
}

// DereferenceArray resolves obj to an array.
func (d *Document) DereferenceArray(obj types.Object) (types.Array, error) {
	return d.ctx.DereferenceArray(obj)
}

// DereferenceName resolves obj to a name value (without leading slash).
func (d *Document) DereferenceName(obj types.Object) (string, error) {
	return d.ctx.DereferenceName(obj, model.V10, nil)
}

// DereferenceStringOrHexLiteral resolves obj to a text-string value.
func (d *Document) DereferenceStringOrHexLiteral(obj types.Object) (string, error) {
	return d.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil)
}

// DereferenceInteger resolves obj to an integer, if present.
func (d *Document) DereferenceInteger(obj types.Object) (*int, error) {
	return d.ctx.DereferenceInteger(obj)
}

// DereferenceNumber resolves obj to a float.
func (d *Document) DereferenceNumber(obj types.Object) (float64, error) {
	return d.ctx.DereferenceNumber(obj)
}

// FindAnnotationPage scans every page's annotation array for a back
// reference matching obj's indirect-reference identity, used as the
// Extractor's page-detection fallback (spec.md §4.B, §9).
func (d *Document) FindAnnotationPage(obj types.Object) (page int, found bool) {
	key, ok := Identity(obj)
	if !ok {
		return 0, false
	}
	for p := 1; p <= d.ctx.PageCount; p++ {
		pageDict, err := d.PageDict(p)
		if err != nil || pageDict == nil {
			continue
		}
		annotsObj, hasAnnots := pageDict.Find("Annots")
		if !hasAnnots {
			continue
		}
		annotsArr, err := d.DereferenceArray(annotsObj)
		if err != nil {
			continue
		}
		for _, a := range annotsArr {
			if k, isIndirect := Identity(a); isIndirect && k == key {
				return p, true
			}
		}
	}
	return 0, false
}

// Identity returns a stable identity for cycle detection: the indirect
// reference's object/generation pair when obj is an indirect reference, or
// ok=false for direct objects (which cannot participate in a reference
// cycle by construction).
func Identity(obj types.Object) (key string, ok bool) {
	ref, isIndirect := obj.(types.IndirectRef)
	if !isIndirect {
		return "", false
	}
	return fmt.Sprintf("%d_%d", ref.ObjectNumber, ref.GenerationNumber), true
}

// Context exposes the underlying pdfcpu context for components (the
// Executor) that must clone and mutate it directly. Everything upstream of
// the Executor should use the read-only accessors above.
func (d *Document) Context() *model.Context {
	return d.ctx
}

// SourcePath returns the path the document was opened from, if any.
func (d *Document) SourcePath() string {
	return d.sourcePath
}

// WriteTo writes the current (possibly mutated) context to path without a
// structural rewrite: pages and every non-field dictionary are preserved by
// reference, only the dictionaries the Executor has touched in place
// diverge from the source bytes.
func (d *Document) WriteTo(path string) error {
	return api.WriteContextFile(d.ctx, path)
}
