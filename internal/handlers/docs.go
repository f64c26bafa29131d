package handlers

import (
	"encoding/json"
	"net/http"
)

func jsonContent(schema interface{}) map[string]interface{} {
	return map[string]interface{}{
		"application/json": map[string]interface{}{"schema": schema},
	}
}

func errorResponse(description string) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content":     jsonContent(map[string]string{"$ref": "#/components/schemas/Error"}),
	}
}

func aggregationSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "string",
		"enum": []string{"Mean", "Sum", "Min", "Max", "Median"},
	}
}

// OpenAPIDocument returns the OpenAPI 3.0 description of the Climate Platform API
func OpenAPIDocument(w http.ResponseWriter, r *http.Request) {
	doc := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Climate Platform API",
			"description": "Builds binned and aggregated climate series from daily, monthly and yearly source data",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Climate Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/datasets/build": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Build a binned data set",
					"description": "Derives, transforms, filters, bins, rejects and aggregates one or two source series",
					"requestBody": map[string]interface{}{
						"required": true,
						"content":  jsonContent(map[string]string{"$ref": "#/components/schemas/BuildRequest"}),
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Ordered output bins",
							"content":     jsonContent(map[string]string{"$ref": "#/components/schemas/BuildResult"}),
						},
						"400": errorResponse("Invalid request or unsupported rule combination"),
						"404": errorResponse("Unknown data set"),
						"500": errorResponse("Internal error"),
					},
				},
			},
			"/api/datasets": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List data sets",
					"description": "List the data sets that can be used as build series",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": jsonContent(map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"data": map[string]interface{}{
										"type":  "array",
										"items": map[string]string{"$ref": "#/components/schemas/DataSetSummary"},
									},
									"total": map[string]string{"type": "integer"},
								},
							}),
						},
						"500": errorResponse("Internal error"),
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API and its backing store are reachable",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "API is healthy",
							"content": jsonContent(map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"status":    map[string]string{"type": "string"},
									"timestamp": map[string]string{"type": "string", "format": "date-time"},
								},
							}),
						},
						"503": map[string]interface{}{"description": "Backing store unreachable"},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"BuildRequest": map[string]interface{}{
					"type":     "object",
					"required": []string{"series", "binning_rule", "bin_aggregation", "bucket_aggregation", "cup_aggregation"},
					"properties": map[string]interface{}{
						"series_derivation": map[string]interface{}{
							"type":    "string",
							"enum":    []string{"Single", "Difference"},
							"default": "Single",
						},
						"series": map[string]interface{}{
							"type":     "array",
							"minItems": 1,
							"maxItems": 2,
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"data_set_id": map[string]string{"type": "string"},
								},
							},
						},
						"transform": map[string]interface{}{
							"type":    "string",
							"enum":    []string{"Identity", "Negate", "IsPositive", "IsNegative", "EqualOrAbove1", "EqualOrAbove10", "EqualOrAbove25"},
							"default": "Identity",
						},
						"filter": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"start_date":       map[string]string{"type": "string", "format": "date"},
								"end_date":         map[string]string{"type": "string", "format": "date"},
								"temperate_season": map[string]interface{}{"type": "string", "enum": []string{"Summer", "Autumn", "Winter", "Spring"}},
								"tropical_season":  map[string]interface{}{"type": "string", "enum": []string{"Wet", "Dry"}},
								"months": map[string]interface{}{
									"type":  "array",
									"items": map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 12},
								},
							},
						},
						"binning_rule": map[string]interface{}{
							"type": "string",
							"enum": []string{
								"ByYear",
								"ByYearAndMonth",
								"ByMonthOnly",
								"BySouthernHemisphereTemperateSeasonOnly",
								"BySouthernHemisphereTropicalSeasonOnly",
							},
						},
						"cup_size":                     map[string]interface{}{"type": "integer", "minimum": 1},
						"bin_aggregation":              aggregationSchema(),
						"bucket_aggregation":           aggregationSchema(),
						"cup_aggregation":              aggregationSchema(),
						"required_cup_data_proportion": map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
					},
				},
				"BuildResult": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"points": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"id":    map[string]string{"type": "string"},
									"label": map[string]string{"type": "string"},
									"value": map[string]interface{}{"type": "number", "nullable": true},
								},
							},
						},
						"record_count":       map[string]string{"type": "integer"},
						"bin_count":          map[string]string{"type": "integer"},
						"rejected_bin_count": map[string]string{"type": "integer"},
					},
				},
				"DataSetSummary": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"id":              map[string]string{"type": "string"},
						"name":            map[string]string{"type": "string"},
						"units":           map[string]string{"type": "string"},
						"resolution":      map[string]interface{}{"type": "string", "enum": []string{"daily", "weekly", "monthly", "yearly"}},
						"record_count":    map[string]string{"type": "integer"},
						"present_count":   map[string]string{"type": "integer"},
						"first_year":      map[string]interface{}{"type": "integer", "nullable": true},
						"last_year":       map[string]interface{}{"type": "integer", "nullable": true},
						"filler_records":  map[string]string{"type": "integer"},
						"dropped_records": map[string]string{"type": "integer"},
						"ingested_at":     map[string]interface{}{"type": "string", "format": "date-time", "nullable": true},
					},
				},
				"Error": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"error":      map[string]string{"type": "string"},
						"message":    map[string]string{"type": "string"},
						"code":       map[string]string{"type": "integer"},
						"request_id": map[string]string{"type": "string"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}
