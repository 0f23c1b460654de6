// Package service pairs a request schema with a response schema under one
// service type name.
//
// A Descriptor carries no serialization logic of its own. It fixes which
// schemas a call uses and the service token both ends compare before
// exchanging bytes:
//
//	request.Text()  = "int64 filter_id"
//	response.Text() = "int64 result"
//	token           = md5("int64 filter_id" + Separator + "int64 result")
//
// Descriptors are immutable and safe for concurrent use.
package service

import (
	"fmt"
	"strings"

	"rosrpc/message"
	"rosrpc/schema"
)

// Separator joins the request and response canonical texts before digesting.
// It is empty, which reproduces the service tokens of existing ROS tooling.
const Separator = ""

// Descriptor is the static binding of a service type to its request and
// response schemas.
type Descriptor struct {
	name       string
	request    *schema.Schema
	response   *schema.Schema
	text       string
	definition string
	token      schema.Token
}

// Define binds typeName ("package/Name") to req and resp.
func Define(typeName string, req, resp *schema.Schema) (*Descriptor, error) {
	if err := schema.ValidateTypeName(typeName); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if req == nil || resp == nil {
		return nil, fmt.Errorf("service: %s needs both a request and a response schema", typeName)
	}
	text := req.Text() + Separator + resp.Text()
	return &Descriptor{
		name:       typeName,
		request:    req,
		response:   resp,
		text:       text,
		definition: definitionSide(req.Definition()) + "---\n" + definitionSide(resp.Definition()),
		token:      schema.Digest(text),
	}, nil
}

// definitionSide ends a non-empty half of a service definition with exactly
// one newline so the "---" separator always lands on its own line.
func definitionSide(def string) string {
	def = strings.TrimRight(def, "\n")
	if def == "" {
		return ""
	}
	return def + "\n"
}

// MustDefine is like Define but panics on error.
func MustDefine(typeName string, req, resp *schema.Schema) *Descriptor {
	d, err := Define(typeName, req, resp)
	if err != nil {
		panic(err)
	}
	return d
}

// Name returns the service type name.
func (d *Descriptor) Name() string { return d.name }

// Request returns the request schema.
func (d *Descriptor) Request() *schema.Schema { return d.request }

// Response returns the response schema.
func (d *Descriptor) Response() *schema.Schema { return d.response }

// Token returns the service identity token.
func (d *Descriptor) Token() schema.Token { return d.token }

// Text returns the text the service token is computed from.
func (d *Descriptor) Text() string { return d.text }

// Definition returns the service definition in .srv form, as authored when
// the descriptor came from Parse.
func (d *Descriptor) Definition() string { return d.definition }

// NewRequest builds an instance of the request schema.
func (d *Descriptor) NewRequest(opts ...message.Option) (*message.Message, error) {
	return message.New(d.request, opts...)
}

// NewResponse builds an instance of the response schema.
func (d *Descriptor) NewResponse(opts ...message.Option) (*message.Message, error) {
	return message.New(d.response, opts...)
}

// Check compares the token a peer announced for this service with the local
// one.
func (d *Descriptor) Check(remote schema.Token) error {
	if remote != d.token {
		return &SchemaMismatchError{Service: d.name, Local: d.token, Remote: remote}
	}
	return nil
}

func (d *Descriptor) String() string {
	return d.name + "[" + d.token.String() + "]"
}

// SchemaMismatchError reports two endpoints that disagree on the layout of
// the same service.
type SchemaMismatchError struct {
	Service string
	Local   schema.Token
	Remote  schema.Token
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("service: %s schema mismatch: local %s, remote %s", e.Service, e.Local, e.Remote)
}
