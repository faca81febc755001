package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/models"
)

const productTTL = 5 * time.Minute

// ProductCache is a read-through cache for single product lookups. All
// methods are safe on a nil receiver or a nil client, so callers never need
// to check whether caching is enabled.
type ProductCache struct {
	rdb *redis.Client
}

func NewProductCache(rdb *redis.Client) *ProductCache {
	if rdb == nil {
		return nil
	}
	return &ProductCache{rdb: rdb}
}

func productKey(id string) string {
	return "product:" + id
}

func (pc *ProductCache) GetProduct(ctx context.Context, id string) (*models.Product, bool) {
	if pc == nil || pc.rdb == nil {
		return nil, false
	}

	payload, err := pc.rdb.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		return nil, false
	}

	var product models.Product
	if err := json.Unmarshal(payload, &product); err != nil {
		log.Println("[CACHE] corrupt product entry, dropping:", err)
		pc.rdb.Del(ctx, productKey(id))
		return nil, false
	}
	return &product, true
}

func (pc *ProductCache) SetProduct(ctx context.Context, product *models.Product) {
	if pc == nil || pc.rdb == nil || product == nil {
		return
	}

	payload, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := pc.rdb.Set(ctx, productKey(product.ID.Hex()), payload, productTTL).Err(); err != nil {
		log.Println("[CACHE] failed to store product:", err)
	}
}

// Invalidate drops a product entry together with the filter options, since
// any product write can change the distinct category/brand/price sets.
func (pc *ProductCache) Invalidate(ctx context.Context, id string) {
	if pc == nil || pc.rdb == nil {
		return
	}
	if err := pc.rdb.Del(ctx, productKey(id), filterOptionsKey).Err(); err != nil {
		log.Println("[CACHE] failed to invalidate product:", err)
	}
}

const filterOptionsKey = "products:filters"

func (pc *ProductCache) GetFilterOptions(ctx context.Context) ([]byte, bool) {
	if pc == nil || pc.rdb == nil {
		return nil, false
	}
	payload, err := pc.rdb.Get(ctx, filterOptionsKey).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (pc *ProductCache) SetFilterOptions(ctx context.Context, payload []byte) {
	if pc == nil || pc.rdb == nil {
		return
	}
	if err := pc.rdb.Set(ctx, filterOptionsKey, payload, productTTL).Err(); err != nil {
		log.Println("[CACHE] failed to store filter options:", err)
	}
}
