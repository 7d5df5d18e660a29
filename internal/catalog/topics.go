package catalog

import "strconv"

const (
	TopicProductEvents  = "catalog.product"
	TopicReviewEvents   = "catalog.review"
	TopicWishlistEvents = "catalog.wishlist"
)

// Partition key = product id, so every event about one product keeps order.
func PartitionKey(productID int64) []byte { return []byte(strconv.FormatInt(productID, 10)) }
