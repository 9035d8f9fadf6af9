// Package sql embeds the schema migrations and the static statements used by
// the loader and the centroid store.
package sql

import (
	"embed"
)

//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/upsert_provider.sql
var UpsertProvider string

//go:embed queries/upsert_drg_price.sql
var UpsertDrgPrice string

//go:embed queries/upsert_rating.sql
var UpsertRating string

//go:embed queries/insert_centroid.sql
var InsertCentroid string

//go:embed queries/centroid_exists.sql
var CentroidExists string

//go:embed queries/lookup_load_run.sql
var LookupLoadRun string

//go:embed queries/register_load_run.sql
var RegisterLoadRun string

//go:embed queries/finish_load_run.sql
var FinishLoadRun string

//go:embed queries/distinct_provider_zips.sql
var DistinctProviderZips string

//go:embed queries/create_centroid_staging.sql
var CreateCentroidStaging string

//go:embed queries/merge_centroid_staging.sql
var MergeCentroidStaging string

//go:embed queries/delete_unfinished_load_runs.sql
var DeleteUnfinishedLoadRuns string
