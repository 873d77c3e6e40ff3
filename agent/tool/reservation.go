package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	bookingx "github.com/CharlesKZhang/Reservation-Bot/agent/booking"
	contractx "github.com/CharlesKZhang/Reservation-Bot/agent/contract"
)

const (
	ToolCheckAvailability = "check_restaurant_availability"
	ToolBookTable         = "book_table"
)

// BookTableOutput is the structured payload returned to the model by the
// booking tool, both on success and on a full-slot miss.
type BookTableOutput struct {
	Success          bool   `json:"success"`
	ConfirmationCode string `json:"confirmationCode,omitempty"`
	Message          string `json:"message,omitempty"`
}

// BuildRegistry wires the reservation tools to a slot store.
func BuildRegistry(store bookingx.Store, opts ...RegistryOption) (*Registry, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: slot store is required", contractx.ErrValidation)
	}

	registry := NewRegistry(opts...)
	if err := registry.Register(checkAvailabilityInfo(), checkAvailabilityHandler(store)); err != nil {
		return nil, err
	}
	if err := registry.Register(bookTableInfo(), bookTableHandler(store)); err != nil {
		return nil, err
	}
	return registry, nil
}

func checkAvailabilityInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolCheckAvailability,
		Desc: "Check whether a table is available at the requested date, time, and party size. Returns nearby alternate times when the exact slot is taken.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"restaurant_name": {Type: schema.String, Desc: "Name of the restaurant", Required: false},
			"date":            {Type: schema.String, Desc: "Reservation date, YYYY-MM-DD", Required: true},
			"time":            {Type: schema.String, Desc: "Reservation time, HH:MM 24-hour", Required: true},
			"partySize":       {Type: schema.Integer, Desc: "Number of guests", Required: true},
			"platform":        {Type: schema.String, Desc: "Booking platform", Enum: []string{"OpenTable", "Tock"}, Required: false},
		}),
	}
}

func bookTableInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolBookTable,
		Desc: "Book a table for the given date, time, and party size. Returns a confirmation code on success.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"restaurant_name": {Type: schema.String, Desc: "Name of the restaurant", Required: false},
			"date":            {Type: schema.String, Desc: "Reservation date, YYYY-MM-DD", Required: true},
			"time":            {Type: schema.String, Desc: "Reservation time, HH:MM 24-hour", Required: true},
			"partySize":       {Type: schema.Integer, Desc: "Number of guests", Required: true},
		}),
	}
}

func checkAvailabilityHandler(store bookingx.Store) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		date, timeOfDay, partySize, err := reservationArgs(args)
		if err != nil {
			return nil, err
		}

		// Descriptive only; the store does not key on restaurant or platform.
		restaurant, _ := optionalString(args, "restaurant_name")
		platform, _ := optionalString(args, "platform")
		log.Debug().
			Str("restaurant", restaurant).
			Str("platform", platform).
			Str("date", date).
			Str("time", timeOfDay).
			Int("party_size", partySize).
			Msg("availability check")

		return store.QueryAvailability(ctx, date, timeOfDay, partySize)
	}
}

func bookTableHandler(store bookingx.Store) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		date, timeOfDay, partySize, err := reservationArgs(args)
		if err != nil {
			return nil, err
		}

		record, err := store.Reserve(ctx, date, timeOfDay, partySize)
		if errors.Is(err, contractx.ErrSlotUnavailable) {
			// A taken slot is an answer, not a failure: the model decides
			// how to steer the conversation from here.
			return BookTableOutput{
				Success: false,
				Message: fmt.Sprintf("no available table for %s at %s for a party of %d", date, timeOfDay, partySize),
			}, nil
		}
		if err != nil {
			return nil, err
		}

		return BookTableOutput{
			Success:          true,
			ConfirmationCode: record.ConfirmationCode,
			Message:          fmt.Sprintf("table booked for %s at %s, party of %d", date, timeOfDay, partySize),
		}, nil
	}
}

func reservationArgs(args map[string]any) (date, timeOfDay string, partySize int, err error) {
	if date, err = requiredString(args, "date"); err != nil {
		return "", "", 0, err
	}
	if timeOfDay, err = requiredString(args, "time"); err != nil {
		return "", "", 0, err
	}
	if partySize, err = requiredInt(args, "partySize"); err != nil {
		return "", "", 0, err
	}
	if partySize <= 0 {
		return "", "", 0, fmt.Errorf("partySize must be positive")
	}
	return date, timeOfDay, partySize, nil
}
