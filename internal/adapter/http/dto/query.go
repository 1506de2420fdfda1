package dto

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/iho/branchledger/internal/domain"
)

// EntryOptionsFromQuery reads report and listing filters from query parameters.
func EntryOptionsFromQuery(q url.Values) (domain.EntryOptions, error) {
	var (
		opts domain.EntryOptions
		err  error
	)
	if opts.LedgerID, err = int64Param(q, "ledgerId"); err != nil {
		return opts, err
	}
	if opts.TypeID, err = int64Param(q, "typeId"); err != nil {
		return opts, err
	}
	if opts.TagID, err = int64Param(q, "tagId"); err != nil {
		return opts, err
	}
	if opts.StartDate, err = dateParam(q, "startDate", ParseDate); err != nil {
		return opts, err
	}
	if opts.EndDate, err = dateParam(q, "endDate", ParseEndDate); err != nil {
		return opts, err
	}
	if opts.ShowOnlyOpeningBalance, err = boolParam(q, "showOnlyOpeningBalance"); err != nil {
		return opts, err
	}
	if opts.ShowAllEntries, err = boolParam(q, "showAllEntries"); err != nil {
		return opts, err
	}
	if opts.AllBranches, err = boolParam(q, "allBranches"); err != nil {
		return opts, err
	}
	opts.Text = q.Get("q")
	return opts, nil
}

func int64Param(q url.Values, key string) (int64, error) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func dateParam(q url.Values, key string, parse func(string) (time.Time, error)) (*time.Time, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	t, err := parse(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &t, nil
}

func boolParam(q url.Values, key string) (bool, error) {
	v := q.Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, v)
	}
	return b, nil
}
