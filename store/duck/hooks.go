package duck

import (
	"context"

	nt "gridlite/entity"
	"gridlite/pipeline"
	"gridlite/sorting"
)

// Hooks evaluates filter and sort in the database when the state translates to SQL, and in
// memory otherwise. The grid's data is expected to be this store's Records.
func (dk *Duck) Hooks() pipeline.Hooks {

	return pipeline.Hooks{
		Filter: dk.filterHook,
		Sort:   dk.sortHook,
	}
}

// unexported

func (dk *Duck) filterHook(ctx context.Context, params pipeline.Params) (records []nt.Record, err error) {

	if params.Filter.Len() == 0 {
		return params.Data, nil
	}

	bld := dk.builder()
	_, _, err = bld.where(params.Filter)
	if err != nil {
		dk.logger.Info(ctx, "filtering in memory", "reason", err.Error())
		return params.Filter.Apply(params.Data), nil
	}

	return dk.Query(ctx, params.Filter, sorting.NewState())
}

func (dk *Duck) sortHook(ctx context.Context, params pipeline.Params) (records []nt.Record, err error) {

	if params.Sort.Len() == 0 {
		return params.Data, nil
	}

	bld := dk.builder()
	_, _, err = bld.where(params.Filter)
	if err == nil {
		_, err = bld.orderBy(params.Sort)
	}
	if err != nil {
		dk.logger.Info(ctx, "sorting in memory", "reason", err.Error())
		params.Sort.Apply(params.Data)
		return params.Data, nil
	}

	return dk.Query(ctx, params.Filter, params.Sort)
}
