// Package query holds helpers for table tests of the cellar query service.
package query

import (
	"context"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provlabs/cellar/runtime"
)

// TestDef describes the query endpoint under test.
// R is the request type and S the response type.
type TestDef[R any, S any] struct {
	// QueryName names the endpoint in assertion messages.
	QueryName string
	// Query is the endpoint.
	Query func(ctx context.Context, req *R) (*S, error)
	// ManualEquality replaces the default equality assertion when set. Use it
	// for responses holding math types whose internal representation differs
	// between equal values.
	ManualEquality func(s TestSuiter, expected, actual *S)
}

// TestCase is one call of a query endpoint.
type TestCase[R any, S any] struct {
	Name string
	// Setup prepares state. It runs against a cached context, so nothing it
	// writes leaks into other cases.
	Setup        func()
	Req          *R
	ExpectedResp *S
	// ExpectedErrSubstrs must all appear in the returned error. When empty the
	// call must succeed.
	ExpectedErrSubstrs []string
}

// TestSuiter is the part of a testify suite RunTestCase needs.
type TestSuiter interface {
	Context() context.Context
	SetContext(ctx context.Context)
	Require() *require.Assertions
	Assert() *assert.Assertions
}

// RunTestCase runs tc against the endpoint described by td in a cached
// context that is dropped afterwards.
func RunTestCase[R any, S any](s TestSuiter, td TestDef[R, S], tc TestCase[R, S]) {
	orig := s.Context()
	defer s.SetContext(orig)
	cached, _ := runtime.CacheContext(orig)
	s.SetContext(cached)

	if tc.Setup != nil {
		tc.Setup()
	}

	var (
		resp *S
		err  error
	)
	s.Require().NotPanics(func() { resp, err = td.Query(s.Context(), tc.Req) }, td.QueryName)

	if len(tc.ExpectedErrSubstrs) > 0 {
		s.Require().Errorf(err, "%s error", td.QueryName)
		for _, substr := range tc.ExpectedErrSubstrs {
			s.Assert().Containsf(err.Error(), substr, "%s error", td.QueryName)
		}
		return
	}

	s.Require().NoErrorf(err, "%s error", td.QueryName)
	if td.ManualEquality != nil {
		td.ManualEquality(s, tc.ExpectedResp, resp)
		return
	}
	s.Assert().Equalf(tc.ExpectedResp, resp, "%s response", td.QueryName)
}
