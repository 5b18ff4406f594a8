package config

type CacheKeyStruct struct {
	prefix string
}

func NewCacheKeyStruct(prefix string) *CacheKeyStruct {
	return &CacheKeyStruct{prefix: prefix}
}

// StatisticsKey returns the cache key for the class statistics summary
func (r *CacheKeyStruct) StatisticsKey() string {
	return r.prefix + ":statistics"
}

var CacheKey = NewCacheKeyStruct("records")

// StatisticsGenerationKey returns the counter bumped on every write to the
// student records
func (r *CacheKeyStruct) StatisticsGenerationKey() string {
	return r.prefix + ":statistics:generation"
}
