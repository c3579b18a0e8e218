package order

import (
	"fmt"

	"github.com/google/uuid"

	"food-marketplace/internal/models"
	"food-marketplace/internal/pricing"
)

const maxOrderLines = 50

// draftLine is an order item before it has an order
type draftLine struct {
	DishID   uuid.UUID
	Quantity int
	Price    pricing.Money
}

// validateItems checks an explicit item list against the catalog and
// returns the lines to insert, priced at the dishes' current prices
func validateItems(restaurantID uuid.UUID, items []models.ItemRequest, dishes map[uuid.UUID]models.Dish) ([]draftLine, error) {
	if len(items) > maxOrderLines {
		return nil, models.Validation("items", fmt.Sprintf("a maximum of %d items is allowed", maxOrderLines))
	}

	lines := make([]draftLine, 0, len(items))
	for i, item := range items {
		dish, err := validateItem(restaurantID, item, i, dishes)
		if err != nil {
			return nil, err
		}
		lines = append(lines, draftLine{
			DishID:   dish.ID,
			Quantity: item.QuantityOrDefault(),
			Price:    pricing.Snapshot(dish.Price),
		})
	}
	return lines, nil
}

func validateItem(restaurantID uuid.UUID, item models.ItemRequest, index int, dishes map[uuid.UUID]models.Dish) (models.Dish, error) {
	field := fmt.Sprintf("items[%d]", index)

	if err := models.ValidateQuantity(field+".quantity", item.QuantityOrDefault()); err != nil {
		return models.Dish{}, err
	}

	dish, ok := dishes[item.DishID]
	if !ok {
		return models.Dish{}, models.Validation(field+".dish_id", "dish does not exist")
	}
	if dish.RestaurantID != restaurantID {
		return models.Dish{}, models.Validation(field+".dish_id", "dish belongs to another restaurant")
	}
	if !dish.IsAvailable {
		return models.Dish{}, models.Unavailable(field + ".dish_id")
	}
	return dish, nil
}

// singleRestaurant returns the restaurant every cart line's dish belongs to
func singleRestaurant(lines []models.CartLine, dishes map[uuid.UUID]models.Dish) (uuid.UUID, error) {
	var restaurantID uuid.UUID
	for i, line := range lines {
		dish, ok := dishes[line.DishID]
		if !ok {
			return uuid.Nil, models.NotFound("dish")
		}
		if i == 0 {
			restaurantID = dish.RestaurantID
			continue
		}
		if dish.RestaurantID != restaurantID {
			return uuid.Nil, models.Validation("cart", "cart contains dishes from more than one restaurant")
		}
	}
	return restaurantID, nil
}
