package hmmer

import (
	"cmp"
	"slices"
)

// Domain is one reported domain hit inside a Result.
type Domain struct {
	HmmAcc    string `json:"hmm_acc" yaml:"hmm_acc"`
	HmmName   string `json:"hmm_name" yaml:"hmm_name"`
	HmmDesc   string `json:"hmm_desc" yaml:"hmm_desc"`
	HmmFrom   int    `json:"hmm_from" yaml:"hmm_from"`
	HmmTo     int    `json:"hmm_to" yaml:"hmm_to"`
	SqFrom    int    `json:"sq_from" yaml:"sq_from"`
	SqTo      int    `json:"sq_to" yaml:"sq_to"`
	AliLength int    `json:"ali_length" yaml:"ali_length"`
	SimCount  int    `json:"sim_count" yaml:"sim_count"`
}

// Result is one family hit returned by hmmscan.
type Result struct {
	Acc       string    `json:"acc" yaml:"acc"`
	Name      string    `json:"name" yaml:"name"`
	Desc      string    `json:"desc" yaml:"desc"`
	Score     float64   `json:"score" yaml:"score"`
	Evalue    float64   `json:"evalue" yaml:"evalue"`
	Pvalue    float64   `json:"pvalue" yaml:"pvalue"`
	Ndom      int       `json:"ndom" yaml:"ndom"`
	Nreported int       `json:"nreported" yaml:"nreported"`
	Dcl       int       `json:"dcl" yaml:"dcl"`
	Domains   []*Domain `json:"domains" yaml:"domains"`
}

// FirstDomain returns the domain with the lowest sequence start, or nil.
func (r *Result) FirstDomain() *Domain {
	if len(r.Domains) == 0 {
		return nil
	}
	return r.Domains[0]
}

func compareDomains(a, b *Domain) int {
	return cmp.Or(
		cmp.Compare(a.SqFrom, b.SqFrom),
		cmp.Compare(a.SqTo, b.SqTo),
		cmp.Compare(a.HmmAcc, b.HmmAcc),
	)
}

// Results without domains go last.
func compareResults(a, b *Result) int {
	da, db := a.FirstDomain(), b.FirstDomain()
	switch {
	case da == nil && db != nil:
		return 1
	case da != nil && db == nil:
		return -1
	case da != nil && db != nil:
		if c := cmp.Compare(da.SqFrom, db.SqFrom); c != 0 {
			return c
		}
	}
	return cmp.Or(
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.Acc, b.Acc),
	)
}

// SortDomains orders domains by position on the query sequence.
func SortDomains(domains []*Domain) {
	slices.SortStableFunc(domains, compareDomains)
}

// SortResults orders results by the start of their first domain. Each result's
// domains must already be sorted.
func SortResults(results []*Result) {
	slices.SortStableFunc(results, compareResults)
}
