package economy

import (
	"context"

	"grindfall/server/logging"
)

const (
	// EventLootDropped is emitted when an item enters the loot queue.
	EventLootDropped logging.EventType = "economy.loot_dropped"
	// EventLootEvicted is emitted when the loot queue discards an entry.
	EventLootEvicted logging.EventType = "economy.loot_evicted"
	// EventLootPickedUp is emitted when the player moves loot into the bag.
	EventLootPickedUp logging.EventType = "economy.loot_picked_up"
	// EventItemsSold is emitted when bag items are sold.
	EventItemsSold logging.EventType = "economy.items_sold"
	// EventRewarded is emitted when a kill grants gold and experience.
	EventRewarded logging.EventType = "economy.rewarded"
	// EventPurchase is emitted when gold, experience or passive points are spent.
	EventPurchase logging.EventType = "economy.purchase"
)

// LootPayload describes a loot queue entry.
type LootPayload struct {
	Identifier uint32 `json:"identifier"`
	Item       string `json:"item"`
	Rarity     string `json:"rarity"`
	Level      int    `json:"level"`
}

// ItemsSoldPayload describes a sale.
type ItemsSoldPayload struct {
	Count int     `json:"count"`
	Gold  float64 `json:"gold"`
}

// RewardedPayload describes a kill reward.
type RewardedPayload struct {
	Gold       float64 `json:"gold"`
	Experience float64 `json:"experience"`
}

// PurchasePayload describes something the player paid for.
type PurchasePayload struct {
	What     string  `json:"what"`
	Currency string  `json:"currency"`
	Cost     float64 `json:"cost"`
	Amount   int     `json:"amount,omitempty"`
}

// LootDropped publishes a loot drop event.
func LootDropped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload LootPayload, extra map[string]any) {
	publish(ctx, pub, EventLootDropped, logging.SeverityDebug, tick, actor, payload, extra)
}

// LootEvicted publishes a loot eviction event.
func LootEvicted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload LootPayload, extra map[string]any) {
	publish(ctx, pub, EventLootEvicted, logging.SeverityDebug, tick, actor, payload, extra)
}

// LootPickedUp publishes a pickup event.
func LootPickedUp(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload LootPayload, extra map[string]any) {
	publish(ctx, pub, EventLootPickedUp, logging.SeverityInfo, tick, actor, payload, extra)
}

// ItemsSold publishes a sale event.
func ItemsSold(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ItemsSoldPayload, extra map[string]any) {
	publish(ctx, pub, EventItemsSold, logging.SeverityInfo, tick, actor, payload, extra)
}

// Rewarded publishes a kill reward event.
func Rewarded(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RewardedPayload, extra map[string]any) {
	publish(ctx, pub, EventRewarded, logging.SeverityDebug, tick, actor, payload, extra)
}

// Purchase publishes a purchase event.
func Purchase(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PurchasePayload, extra map[string]any) {
	publish(ctx, pub, EventPurchase, logging.SeverityInfo, tick, actor, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, severity logging.Severity, tick uint64, actor logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryEconomy,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
