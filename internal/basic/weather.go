package basic

import (
	"context"
	"fmt"

	"github.com/tooldesk/tooldesk/internal/core"
)

type weatherEntry struct {
	condition   string
	temperature string
}

// Canned data; lookups are exact-match on the city name.
var weatherData = map[string]weatherEntry{
	"New York": {"Sunny", "72°F"},
	"London":   {"Rainy", "60°F"},
	"Tokyo":    {"Cloudy", "65°F"},
	"Sydney":   {"Partly Cloudy", "70°F"},
	"Paris":    {"Clear", "68°F"},
}

// WeatherTool serves canned weather data for a fixed set of cities.
func WeatherTool() core.Tool {
	return core.Tool{
		Descriptor: core.Descriptor{
			Name:        "get_weather",
			Description: "Get weather information for a location",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"location": map[string]any{
						"type":        "string",
						"description": "The location to get weather for (e.g., 'New York', 'London', 'Tokyo', 'Sydney', 'Paris')",
					},
				},
				"required": []string{"location"},
			},
		},
		Handler: core.HandlerFunc(weatherHandler),
	}
}

func weatherHandler(ctx context.Context, args map[string]any) (core.ToolResult, error) {
	location, _ := core.StringArg(args, "location")
	if location == "" {
		return core.ToolResult{Content: "Error: Location not provided"}, nil
	}

	entry, ok := weatherData[location]
	if !ok {
		return core.ToolResult{Content: fmt.Sprintf("No weather data available for %s", location)}, nil
	}
	return core.ToolResult{Content: fmt.Sprintf("Weather in %s: %s, %s", location, entry.condition, entry.temperature)}, nil
}
