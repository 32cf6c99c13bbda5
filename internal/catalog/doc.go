// Package catalog loads the product listing and filters the rendered grid by search text and category.
package catalog
