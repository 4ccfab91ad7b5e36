package plugins

import (
	"context"
	"errors"
	"sync"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"augment-gateway/pkg/engine/directives"
	"augment-gateway/pkg/engine/graphql"
	"augment-gateway/pkg/engine/history"
	"github.com/google/uuid"
	"github.com/spf13/cast"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/multierr"
)

const retainDirectiveSDL = `
directive @retain(
  """A MongoDB collection name to track this query. Defaults to 'QueryHistory'"""
  collection: String = "QueryHistory"
  """An optional ID to subsequently retrieve results, the original ID was returned in the extensions of the original query"""
  replayID: timestamp
  """An optional date time as an RFC string, or a negative number of days relative to now. This defines the lower bound."""
  replayFrom: timestamp
  """An optional date time as an RFC string, or a negative number of days relative to now. This defines the upper bound."""
  replayTo: String
  """An optional field name to be used to compute deltas."""
  deltaKey: String
  """Expiration time in days for query results. Defaults to 120 days. This cannot be changed after the first creation of the collection."""
  ttlDays: Float = 120
  """Use a field name in your query for bucketing by time. Will default to the time of the query."""
  timeField: String = "_timestamp"
  """Additional fields to add to the queryable metadata of the time collection."""
  metaField: [String!]
  """Do not add extra information to output, like _index and _timestamp"""
  clean: Boolean = false
  """Defines the size of time buckets in the time series collection."""
  granularity: Granularity = SECONDS
) on QUERY
`

const retainDefinitionsSDL = `
scalar timestamp

"""Time Series Granularity"""
enum Granularity {
  """Bucket by hours"""
  HOURS
  """Bucket by minutes"""
  MINUTES
  """Bucket by seconds"""
  SECONDS
}
`

// queryHistory 把查询结果逐行留存到时序集合，并支撑重放短路
// 存储钩子不参与重放请求，重放由响应替代钩子直接回源历史存储
type queryHistory struct {
	directive   *ast.DirectiveDefinition
	definitions ast.DefinitionList

	storage     *history.Storage
	storageOnce sync.Once
	storageErr  error
}

func newQueryHistory() *queryHistory {
	return &queryHistory{
		directive:   mustParseDirective(retainDirectiveSDL),
		definitions: mustParseDefinitions(retainDefinitionsSDL),
	}
}

func (p *queryHistory) Name() string {
	return "queryHistory"
}

func (p *queryHistory) Directive() *ast.DirectiveDefinition {
	return p.directive
}

func (p *queryHistory) Definitions() ast.DefinitionList {
	return p.definitions
}

func (p *queryHistory) ArgDefaults() map[string]interface{} {
	return map[string]interface{}{
		"collection":  "QueryHistory",
		"ttlDays":     float64(120),
		"timeField":   consts.HistoryKeyTimestamp,
		"metaField":   []interface{}{},
		"clean":       "false",
		"granularity": string(history.GranularitySeconds),
	}
}

// ReplayDescriptorFromDirective 解码retain指令的重放参数，调度器据此决定是否短路
func (p *queryHistory) ReplayDescriptorFromDirective(octx *directives.OperationContext,
	directive *ast.Directive) (*directives.ReplayDescriptor, error) {
	args, err := directives.DirectiveArgs(directive, p.ArgDefaults())
	if err != nil {
		return nil, err
	}

	return &directives.ReplayDescriptor{
		Collection:    cast.ToString(args["collection"]),
		ReplayID:      cast.ToString(args["replayID"]),
		ReplayFrom:    cast.ToString(args["replayFrom"]),
		ReplayTo:      cast.ToString(args["replayTo"]),
		DeltaKey:      cast.ToString(args["deltaKey"]),
		TimeField:     cast.ToString(args["timeField"]),
		Clean:         cast.ToBool(args["clean"]),
		OperationName: octx.Request.OperationName,
	}, nil
}

// ResponseForOperation 重放请求改走历史存储，检索失败直接失败，没有回源上游引擎的路径
func (p *queryHistory) ResponseForOperation(octx *directives.OperationContext) (*graphql.ExecutionResult, error) {
	if octx.History == nil {
		return nil, nil
	}

	storage, err := p.ensureStorage()
	if err != nil {
		return nil, err
	}
	pairs, err := graphql.FieldListFromQuery(octx.Request.Query, octx.Schema)
	if err != nil {
		return nil, err
	}

	data, err := storage.RetrieveQueryResults(octx.Ctx, &history.RetrieveOptions{
		Collection:    octx.History.Collection,
		ReplayID:      octx.History.ReplayID,
		ReplayFrom:    octx.History.ReplayFrom,
		ReplayTo:      octx.History.ReplayTo,
		DeltaKey:      octx.History.DeltaKey,
		TimeField:     octx.History.TimeField,
		Clean:         octx.History.Clean,
		SelectionHash: pairs.SelectionHash(),
	})
	if err != nil {
		return nil, err
	}
	return &graphql.ExecutionResult{Data: data}, nil
}

// TransformResponse 每个非空root并发发起一次存储调用，全部完成后才释放响应
// 所有root共享一个replayID，留存概要写入extensions.resultsRetained
func (p *queryHistory) TransformResponse(resolver *directives.TransformResolver) error {
	if len(resolver.Result.Data) == 0 {
		return nil
	}
	if utils.GetStringWithLockViper(consts.MongodbConnectionString) == "" {
		return nil
	}

	storage, err := p.ensureStorage()
	if err != nil {
		return err
	}
	pairs, err := graphql.FieldListFromQuery(resolver.Request.Query, resolver.Schema)
	if err != nil {
		return err
	}

	args := resolver.Args
	collection := cast.ToString(args["collection"])
	ttlDays := cast.ToFloat64(args["ttlDays"])
	replayID := uuid.NewString()
	storeOptions := &history.StoreOptions{
		OperationName: resolver.Request.OperationName,
		Query:         resolver.Request.Query,
		ReplayID:      replayID,
		Fields:        pairs,
		Collection:    collection,
		TtlDays:       ttlDays,
		TimeField:     cast.ToString(args["timeField"]),
		MetaFields:    cast.ToStringSlice(args["metaField"]),
		Granularity:   history.ParseGranularity(cast.ToString(args["granularity"])),
	}

	var wg sync.WaitGroup
	var storeLock sync.Mutex
	var storeErr error
	recordCounts := make(map[string]interface{}, len(resolver.Result.Data))
	for root, value := range resolver.Result.Data {
		dataset := datasetOf(value)
		recordCounts[root] = len(dataset)
		if len(dataset) == 0 {
			continue
		}

		wg.Add(1)
		go func(root string, dataset []map[string]interface{}) {
			defer wg.Done()
			rootOptions := *storeOptions
			rootOptions.Root, rootOptions.Dataset = root, dataset
			if err := storage.StoreQueryResults(resolver.Ctx, &rootOptions); err != nil {
				storeLock.Lock()
				storeErr = multierr.Append(storeErr, err)
				storeLock.Unlock()
			}
		}(root, dataset)
	}
	wg.Wait()
	if storeErr != nil {
		return storeErr
	}

	resolver.Span.SetTag("replayID", replayID)
	resolver.Result.AddExtensions(map[string]interface{}{
		"resultsRetained": map[string]interface{}{
			"recordCounts": recordCounts,
			"collection":   collection,
			"ttlDays":      ttlDays,
			"replayID":     replayID,
		},
	})
	return nil
}

func (p *queryHistory) TransformErrorCode() string {
	return "QUERY_HISTORY_ERROR"
}

func (p *queryHistory) ensureStorage() (*history.Storage, error) {
	p.storageOnce.Do(func() {
		connectionString := utils.GetStringWithLockViper(consts.MongodbConnectionString)
		if connectionString == "" {
			p.storageErr = errors.New(consts.MongodbConnectionString + " required")
			return
		}
		p.storage, p.storageErr = history.NewStorage(context.Background(), connectionString)
	})
	return p.storage, p.storageErr
}
