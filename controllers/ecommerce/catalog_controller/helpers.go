package catalog_controller

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-webshop/services/product_query"
)

// parseFilterMap decodes a JSON object of filters. Values may be a scalar or
// a list of scalars; empty values are dropped.
func parseFilterMap(raw string) (map[string][]string, error) {
	out := map[string][]string{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, err
	}
	for field, v := range decoded {
		var values []string
		switch t := v.(type) {
		case []any:
			for _, el := range t {
				if s := scalar(el); s != "" {
					values = append(values, s)
				}
			}
		default:
			if s := scalar(t); s != "" {
				values = append(values, s)
			}
		}
		if len(values) > 0 {
			out[field] = values
		}
	}
	return out, nil
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// listingRequest reads a product listing request from the query string.
func listingRequest(c *gin.Context) (product_query.Request, error) {
	req := product_query.Request{
		Search:    c.Query("search"),
		ItemGroup: c.Query("item_group"),
	}

	var err error
	if req.FieldFilters, err = parseFilterMap(c.Query("field_filters")); err != nil {
		return req, fmt.Errorf("invalid field_filters: %w", err)
	}
	if req.AttributeFilters, err = parseFilterMap(c.Query("attribute_filters")); err != nil {
		return req, fmt.Errorf("invalid attribute_filters: %w", err)
	}
	if s := c.Query("start"); s != "" {
		start, err := strconv.Atoi(s)
		if err != nil || start < 0 {
			return req, fmt.Errorf("invalid start %q", s)
		}
		req.Start = start
	}
	return req, nil
}
