package history

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"augment-gateway/pkg/engine/graphql"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

const defaultDatabase = "QueryHistory"

const connectTimeout = 10 * time.Second

type (
	// StoreOptions 单个root的一次存储调用参数
	StoreOptions struct {
		OperationName string
		Query         string
		Root          string
		ReplayID      string
		Fields        graphql.TypeFieldPairs
		Collection    string
		TtlDays       float64
		TimeField     string
		MetaFields    []string
		Granularity   Granularity
		Dataset       []map[string]interface{}
	}
	// RetrieveOptions 重放检索参数，来自retain指令的解码结果
	RetrieveOptions struct {
		Collection    string
		ReplayID      string
		ReplayFrom    string
		ReplayTo      string
		DeltaKey      string
		TimeField     string
		Clean         bool
		SelectionHash string
	}
	Storage struct {
		client   *mongo.Client
		database string
		logger   *zap.Logger

		// 已确认存在的时序集合，避免每次写入都list collections
		ensured     []string
		ensuredLock sync.Mutex
	}
)

// NewStorage 连接MongoDB，库名取连接串路径段，缺省QueryHistory
func NewStorage(ctx context.Context, connectionString string) (*Storage, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return nil, err
	}

	return &Storage{
		client:   client,
		database: databaseNameFromUri(connectionString),
		logger:   zap.L(),
	}, nil
}

func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// StoreQueryResults 把一个root的数据集逐行写入时序集合
// 每行附加时间戳、共享replayID、root内序号以及可检索的metadata
func (s *Storage) StoreQueryResults(ctx context.Context, storeOptions *StoreOptions) error {
	if err := s.ensureCollection(ctx, storeOptions); err != nil {
		return err
	}

	now := time.Now()
	metadata := bson.M{
		consts.GraphqlKeyOperationName: storeOptions.OperationName,
		consts.GraphqlKeyQuery:         storeOptions.Query,
		metadataKeyFields:              storeOptions.Fields,
		metadataKeySelectionHash:       storeOptions.Fields.SelectionHash(),
		metadataKeyRoot:                storeOptions.Root,
	}
	documents := make([]interface{}, 0, len(storeOptions.Dataset))
	for index, record := range storeOptions.Dataset {
		document := make(bson.M, len(record)+4)
		for k, v := range record {
			document[k] = v
		}
		recordMetadata := make(bson.M, len(metadata)+len(storeOptions.MetaFields))
		for k, v := range metadata {
			recordMetadata[k] = v
		}
		for _, field := range storeOptions.MetaFields {
			if value, existed := record[field]; existed {
				recordMetadata[field] = value
			}
		}
		document[storeOptions.TimeField] = now
		document[consts.HistoryKeyIndex] = index
		document[consts.HistoryKeyReplayId] = storeOptions.ReplayID
		document[consts.HistoryKeyMetadata] = recordMetadata
		documents = append(documents, document)
	}

	_, err := s.collection(storeOptions.Collection).InsertMany(ctx, documents)
	return err
}

// RetrieveQueryResults 按replayID或时间范围检索，还原为多root的响应data形状
func (s *Storage) RetrieveQueryResults(ctx context.Context, retrieveOptions *RetrieveOptions) (map[string]interface{}, error) {
	if retrieveOptions.ReplayID != "" {
		return s.retrieveByReplayID(ctx, retrieveOptions)
	}
	return s.retrieveByRange(ctx, retrieveOptions)
}

// retrieveByReplayID replayID精确匹配，剥离全部簿记字段后按root分组
func (s *Storage) retrieveByReplayID(ctx context.Context, retrieveOptions *RetrieveOptions) (map[string]interface{}, error) {
	records, err := s.find(ctx, retrieveOptions.Collection,
		bson.M{consts.HistoryKeyReplayId: retrieveOptions.ReplayID},
		bson.D{{Key: consts.HistoryKeyIndex, Value: 1}})
	if err != nil {
		return nil, err
	}

	data := make(map[string]interface{})
	for root, rootRecords := range GroupByRoot(records) {
		stripped := make([]map[string]interface{}, 0, len(rootRecords))
		for _, record := range rootRecords {
			stripped = append(stripped, StripBookkeeping(record, retrieveOptions.TimeField))
		}
		data[root] = stripped
	}
	return data, nil
}

// retrieveByRange 按选择集hash和闭区间时间窗过滤
// 声明deltaKey时连续同键记录折叠为增量记录；clean时完整记录也剥离时间戳
func (s *Storage) retrieveByRange(ctx context.Context, retrieveOptions *RetrieveOptions) (map[string]interface{}, error) {
	window := bson.M{}
	now := time.Now()
	if retrieveOptions.ReplayFrom != "" {
		from, err := utils.ParseTimeOrRelativeDays(retrieveOptions.ReplayFrom, now)
		if err != nil {
			return nil, fmt.Errorf("invalid replayFrom %q: %w", retrieveOptions.ReplayFrom, err)
		}
		window["$gte"] = from
	}
	if retrieveOptions.ReplayTo != "" {
		to, err := utils.ParseTimeOrRelativeDays(retrieveOptions.ReplayTo, now)
		if err != nil {
			return nil, fmt.Errorf("invalid replayTo %q: %w", retrieveOptions.ReplayTo, err)
		}
		window["$lte"] = to
	}

	filter := bson.M{
		utils.JoinString(utils.StringDot, consts.HistoryKeyMetadata, metadataKeySelectionHash): retrieveOptions.SelectionHash,
	}
	if len(window) > 0 {
		filter[retrieveOptions.TimeField] = window
	}
	records, err := s.find(ctx, retrieveOptions.Collection, filter,
		bson.D{{Key: retrieveOptions.TimeField, Value: 1}})
	if err != nil {
		return nil, err
	}

	data := make(map[string]interface{})
	for root, rootRecords := range GroupByRoot(records) {
		SortForDelta(rootRecords, retrieveOptions.DeltaKey, retrieveOptions.TimeField)
		if retrieveOptions.DeltaKey != "" {
			rootRecords = ComputeDeltas(rootRecords, retrieveOptions.DeltaKey, retrieveOptions.TimeField)
		}
		data[root] = shapeRangeRecords(rootRecords, retrieveOptions.TimeField, retrieveOptions.Clean)
	}
	return data, nil
}

// shapeRangeRecords 交付前剥离簿记字段
// 增量记录在折叠时已剥离簿记且带有意的时间戳标注，原样交付；
// clean只决定完整记录是否保留时间戳
func shapeRangeRecords(records []map[string]interface{}, timeField string, clean bool) []map[string]interface{} {
	shaped := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		if _, full := record[consts.HistoryKeyMetadata]; !full {
			shaped = append(shaped, record)
			continue
		}

		strippedTimeField := ""
		if clean {
			strippedTimeField = timeField
		}
		shaped = append(shaped, StripBookkeeping(record, strippedTimeField))
	}
	return shaped
}

func (s *Storage) find(ctx context.Context, collection string, filter bson.M, sortKeys bson.D) ([]map[string]interface{}, error) {
	cursor, err := s.collection(collection).Find(ctx, filter, options.Find().SetSort(sortKeys))
	if err != nil {
		return nil, err
	}

	var rawRecords []bson.M
	if err = cursor.All(ctx, &rawRecords); err != nil {
		return nil, err
	}
	records := make([]map[string]interface{}, 0, len(rawRecords))
	for _, record := range rawRecords {
		records = append(records, NormalizeRecord(record))
	}
	return records, nil
}

// ensureCollection 首次写入时创建时序集合，携带过期策略和分桶粒度
// 集合已存在时后续请求的ttl和granularity参数不生效
func (s *Storage) ensureCollection(ctx context.Context, storeOptions *StoreOptions) error {
	s.ensuredLock.Lock()
	defer s.ensuredLock.Unlock()
	if slices.Contains(s.ensured, storeOptions.Collection) {
		return nil
	}

	database := s.client.Database(s.database)
	existed, err := database.ListCollectionNames(ctx, bson.M{"name": storeOptions.Collection})
	if err != nil {
		return err
	}
	if len(existed) == 0 {
		createOptions := options.CreateCollection().
			SetTimeSeriesOptions(options.TimeSeries().
				SetTimeField(storeOptions.TimeField).
				SetMetaField(consts.HistoryKeyMetadata).
				SetGranularity(storeOptions.Granularity.BucketName())).
			SetExpireAfterSeconds(int64(storeOptions.TtlDays * 86400))
		if err = database.CreateCollection(ctx, storeOptions.Collection, createOptions); err != nil {
			return err
		}
		s.logger.Info("time series collection created",
			zap.String("collection", storeOptions.Collection),
			zap.Float64("ttlDays", storeOptions.TtlDays),
			zap.String("granularity", string(storeOptions.Granularity)))
	}
	s.ensured = append(s.ensured, storeOptions.Collection)
	return nil
}

func (s *Storage) collection(name string) *mongo.Collection {
	return s.client.Database(s.database).Collection(name)
}

// databaseNameFromUri 从连接串路径段解析库名
func databaseNameFromUri(connectionString string) string {
	trimmed := connectionString
	if index := strings.Index(trimmed, "://"); index >= 0 {
		trimmed = trimmed[index+3:]
	}
	if index := strings.Index(trimmed, "/"); index >= 0 {
		trimmed = trimmed[index+1:]
	} else {
		return defaultDatabase
	}
	if index := strings.Index(trimmed, "?"); index >= 0 {
		trimmed = trimmed[:index]
	}
	if trimmed == "" {
		return defaultDatabase
	}
	return trimmed
}
