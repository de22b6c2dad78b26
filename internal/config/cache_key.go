package config

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// DashboardSummaryKey returns the cache key for the dashboard payload
func (r *CacheKeyStruct) DashboardSummaryKey() string {
	return "dashboard:summary"
}

// PredictionEventsChannel returns the Redis PubSub channel for prediction run events
func (r *CacheKeyStruct) PredictionEventsChannel() string {
	return "predictions:events"
}

var CacheKey = NewCacheKeyStruct()
