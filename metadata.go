package odata

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rbaliyan/odata/edm"
	"github.com/rbaliyan/odata/model"
)

// KeyPlacement selects how entity keys appear in convention-built URLs.
type KeyPlacement int

const (
	// KeyDefault defers to the model's url-conventions annotation, then to
	// parentheses.
	KeyDefault KeyPlacement = iota
	// KeyParentheses builds "Customers('ALFKI')".
	KeyParentheses
	// KeySegment builds "Customers/ALFKI".
	KeySegment
)

// TypeContext names the navigation source an entry or feed belongs to.
// Producer-supplied serialization info takes precedence over model lookups
// when both could answer.
type TypeContext struct {
	// ServiceRoot is the base for convention-built URLs.
	ServiceRoot *url.URL
	// EntitySet is the navigation source name.
	EntitySet string
	// BaseTypeName is the declared element type of the set.
	BaseTypeName string
	// ExpectedTypeName is the type expected at the point of use.
	ExpectedTypeName string
}

// NewTypeContext resolves a type context from serialization info and the
// model. Explicitly supplied info wins; the model fills the gaps.
func NewTypeContext(info *model.SerializationInfo, actual *edm.EntityType, m *edm.Model, serviceRoot *url.URL) TypeContext {
	tc := TypeContext{ServiceRoot: serviceRoot}
	if info != nil {
		tc.EntitySet = info.EntitySet
		tc.BaseTypeName = info.BaseTypeName
		tc.ExpectedTypeName = info.ExpectedTypeName
	}
	if tc.EntitySet == "" && m != nil && actual != nil {
		if set, ok := m.EntitySetForType(actual); ok {
			tc.EntitySet = set.Name()
			tc.BaseTypeName = set.ElementType().QualifiedName()
		}
	}
	return tc
}

// BuilderArgs is everything an entry metadata builder needs. One builder is
// created per entry, immediately before that entry is processed.
type BuilderArgs struct {
	// Entry is the entry being augmented. The builder keeps this reference
	// without owning it.
	Entry       *model.Entry
	TypeContext TypeContext
	// SerializationInfo are the producer's explicit naming hints.
	SerializationInfo *model.SerializationInfo
	// ActualType is the entry's resolved (possibly derived) entity type.
	ActualType *edm.EntityType
	// Selected restricts which navigation links are materialized.
	Selected model.SelectedProperties
	// Response is the message direction.
	Response bool
	// KeyPlacement is the caller's key convention preference.
	KeyPlacement KeyPlacement
	// Model is consulted for key-placement annotations and bound
	// operations.
	Model *edm.Model
}

// nullMetadataBuilder surfaces exactly what the producer set. Nothing is
// synthesized at the none level.
type nullMetadataBuilder struct {
	entry *model.Entry
}

func (b *nullMetadataBuilder) ID() (string, bool) {
	return b.entry.ID, b.entry.ID != ""
}

func (b *nullMetadataBuilder) EditLink() (*url.URL, bool) {
	return b.entry.EditLink, b.entry.EditLink != nil
}

func (b *nullMetadataBuilder) ReadLink() (*url.URL, bool) {
	return b.entry.ReadLink, b.entry.ReadLink != nil
}

func (b *nullMetadataBuilder) MediaResource() (*model.StreamReference, bool) {
	return b.entry.MediaResource, b.entry.MediaResource != nil
}

func (b *nullMetadataBuilder) NavigationLink(name string) (*url.URL, bool) {
	for _, l := range b.entry.NavigationLinks {
		if l.Name == name && l.URL != nil {
			return l.URL, true
		}
	}
	return nil, false
}

func (b *nullMetadataBuilder) AssociationLink(name string) (*url.URL, bool) {
	for _, l := range b.entry.AssociationLinks {
		if l.Name == name && l.URL != nil {
			return l.URL, true
		}
	}
	return nil, false
}

func (b *nullMetadataBuilder) Operations() []model.Operation {
	return b.entry.Operations
}

// conventionalMetadataBuilder computes id, edit link and media resource
// from the entity set URI and the entry's key, for fields the producer left
// unset. Every computation is lazy and memoized independently; an explicit
// value is never overridden.
type conventionalMetadataBuilder struct {
	entry *model.Entry
	args  BuilderArgs

	id        string
	idDone    bool
	edit      *url.URL
	editDone  bool
	media     *model.StreamReference
	mediaDone bool
}

func newConventionalMetadataBuilder(args BuilderArgs) *conventionalMetadataBuilder {
	return &conventionalMetadataBuilder{entry: args.Entry, args: args}
}

func (b *conventionalMetadataBuilder) ID() (string, bool) {
	if b.entry.ID != "" {
		return b.entry.ID, true
	}
	if !b.idDone {
		if u := b.entityURL(); u != nil {
			b.id = u.String()
		}
		b.idDone = true
	}
	return b.id, b.id != ""
}

func (b *conventionalMetadataBuilder) EditLink() (*url.URL, bool) {
	if b.entry.EditLink != nil {
		return b.entry.EditLink, true
	}
	if !b.editDone {
		b.edit = b.entityURL()
		b.editDone = true
	}
	return b.edit, b.edit != nil
}

func (b *conventionalMetadataBuilder) ReadLink() (*url.URL, bool) {
	if b.entry.ReadLink != nil {
		return b.entry.ReadLink, true
	}
	// By convention the read link is the edit link.
	return b.EditLink()
}

func (b *conventionalMetadataBuilder) MediaResource() (*model.StreamReference, bool) {
	if b.entry.MediaResource != nil {
		return b.entry.MediaResource, true
	}
	if !b.mediaDone {
		if b.isMediaEntity() {
			if edit, ok := b.EditLink(); ok {
				value := edit.JoinPath("$value")
				b.media = &model.StreamReference{ReadLink: value, EditLink: value}
			}
		}
		b.mediaDone = true
	}
	return b.media, b.media != nil
}

func (b *conventionalMetadataBuilder) NavigationLink(name string) (*url.URL, bool) {
	for _, l := range b.entry.NavigationLinks {
		if l.Name == name && l.URL != nil {
			return l.URL, true
		}
	}
	return nil, false
}

func (b *conventionalMetadataBuilder) AssociationLink(name string) (*url.URL, bool) {
	for _, l := range b.entry.AssociationLinks {
		if l.Name == name && l.URL != nil {
			return l.URL, true
		}
	}
	return nil, false
}

func (b *conventionalMetadataBuilder) Operations() []model.Operation {
	return b.entry.Operations
}

func (b *conventionalMetadataBuilder) isMediaEntity() bool {
	if info := b.args.SerializationInfo; info != nil && info.IsMediaEntity {
		return true
	}
	return b.args.ActualType != nil && b.args.ActualType.HasStream()
}

// entityURL builds "<service root>/<entity set>(<key>)" or the key-as-
// segment form. Returns nil when the service root, set name, key
// declaration or a key value is missing; the caller surfaces the field as
// absent.
func (b *conventionalMetadataBuilder) entityURL() *url.URL {
	tc := b.args.TypeContext
	if tc.ServiceRoot == nil || tc.EntitySet == "" || b.args.ActualType == nil {
		return nil
	}
	key := b.args.ActualType.Key()
	if len(key) == 0 {
		return nil
	}
	single := len(key) == 1
	parts := make([]string, 0, len(key))
	for _, name := range key {
		v, ok := b.entry.Property(name)
		if !ok || v == nil {
			return nil
		}
		if single {
			parts = append(parts, formatKeyValue(v))
		} else {
			parts = append(parts, name+"="+formatKeyValue(v))
		}
	}
	predicate := strings.Join(parts, ",")
	u := tc.ServiceRoot.JoinPath(tc.EntitySet)
	// Composite keys always use parentheses; a bare segment cannot carry
	// name=value pairs unambiguously.
	if b.keyAsSegment() && single {
		return u.JoinPath(strings.Trim(predicate, "'"))
	}
	u.Path += "(" + predicate + ")"
	if u.RawPath != "" {
		u.RawPath += "(" + predicate + ")"
	}
	return u
}

// keyAsSegment resolves the key convention: the explicit parameter wins,
// then the model annotation, then parentheses.
func (b *conventionalMetadataBuilder) keyAsSegment() bool {
	switch b.args.KeyPlacement {
	case KeySegment:
		return true
	case KeyParentheses:
		return false
	}
	if b.args.Model != nil {
		if v, ok := b.args.Model.Annotation(edm.AnnotationURLConventions); ok {
			return strings.EqualFold(v, edm.URLConventionKeyAsSegment)
		}
	}
	return false
}

// formatKeyValue renders a key property value as a URL key literal.
func formatKeyValue(v any) string {
	switch x := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case bool:
		return strconv.FormatBool(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return "datetime'" + x.UTC().Format("2006-01-02T15:04:05") + "'"
	default:
		return fmt.Sprintf("%v", x)
	}
}

// fullMetadataBuilder extends the conventional builder with association and
// navigation links and bindable operations, the descriptors omitted at the
// minimal level. Relative references are made absolute against the schema
// document URI.
type fullMetadataBuilder struct {
	conventionalMetadataBuilder
	metadataDocumentURI *url.URL

	navLinks   map[string]*url.URL
	assocLinks map[string]*url.URL
	ops        []model.Operation
	opsDone    bool
}

func (b *fullMetadataBuilder) NavigationLink(name string) (*url.URL, bool) {
	if u, ok := b.conventionalMetadataBuilder.NavigationLink(name); ok {
		return b.absolutize(u), true
	}
	if u, ok := b.navLinks[name]; ok {
		return u, u != nil
	}
	var u *url.URL
	if b.declaresNavigation(name) && b.args.Selected.Includes(name) {
		if edit, ok := b.EditLink(); ok {
			u = b.absolutize(edit.JoinPath(name))
		}
	}
	if b.navLinks == nil {
		b.navLinks = make(map[string]*url.URL)
	}
	b.navLinks[name] = u
	return u, u != nil
}

func (b *fullMetadataBuilder) AssociationLink(name string) (*url.URL, bool) {
	if u, ok := b.conventionalMetadataBuilder.AssociationLink(name); ok {
		return b.absolutize(u), true
	}
	if u, ok := b.assocLinks[name]; ok {
		return u, u != nil
	}
	var u *url.URL
	if b.declaresNavigation(name) && b.args.Selected.Includes(name) {
		if edit, ok := b.EditLink(); ok {
			u = b.absolutize(edit.JoinPath("$links", name))
		}
	}
	if b.assocLinks == nil {
		b.assocLinks = make(map[string]*url.URL)
	}
	b.assocLinks[name] = u
	return u, u != nil
}

func (b *fullMetadataBuilder) Operations() []model.Operation {
	if len(b.entry.Operations) > 0 {
		return b.entry.Operations
	}
	if b.opsDone {
		return b.ops
	}
	b.opsDone = true
	if b.args.Model == nil || b.args.ActualType == nil {
		return nil
	}
	edit, ok := b.EditLink()
	if !ok {
		return nil
	}
	for _, op := range b.args.Model.BoundOperations(b.args.ActualType) {
		kind := model.OperationAction
		if op.Kind() == edm.Function {
			kind = model.OperationFunction
		}
		metadata := "#" + op.QualifiedName()
		if b.metadataDocumentURI != nil {
			metadata = b.metadataDocumentURI.String() + metadata
		}
		b.ops = append(b.ops, model.Operation{
			Kind:     kind,
			Metadata: metadata,
			Title:    op.Title(),
			Target:   b.absolutize(edit.JoinPath(op.QualifiedName())),
		})
	}
	return b.ops
}

func (b *fullMetadataBuilder) declaresNavigation(name string) bool {
	if b.args.ActualType == nil {
		return false
	}
	for _, nav := range b.args.ActualType.NavigationProperties() {
		if nav.Name == name {
			return true
		}
	}
	return false
}

func (b *fullMetadataBuilder) absolutize(u *url.URL) *url.URL {
	if u == nil || u.IsAbs() || b.metadataDocumentURI == nil {
		return u
	}
	return b.metadataDocumentURI.ResolveReference(u)
}
