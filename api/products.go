package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/bazario/marketplace-api/db"
	"github.com/bazario/marketplace-api/model"
)

// productRequest represents the mutable fields of a product listing. Enumerating
// the fields explicitly keeps a request from overwriting anything else.
type productRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Price       float64  `json:"price" binding:"required,gt=0"`
	Category    string   `json:"category" binding:"required"`
	Images      []string `json:"image" binding:"required,min=1"`
	Rate        float64  `json:"rate"`
	Count       int      `json:"count"`
}

// handleCreateProduct adds a product listing and fires a notification to the
// authenticated seller.
func (s *Server) handleCreateProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request productRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Store the product.
		product := &model.Product{
			Title:       request.Title,
			Description: request.Description,
			Price:       request.Price,
			Category:    request.Category,
			Images:      request.Images,
			Rating:      model.Rating{Rate: request.Rate, Count: request.Count},
		}
		if err := s.store.AddProduct(c.Request.Context(), product); err != nil {
			s.log.Errorf("unable to add the product: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to upload the product"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Product uploaded successfully", "product": product})

		// The listing has already been committed; the notification outcome is only
		// logged.
		s.notifier.Notify(
			c.Request.Context(),
			authenticatedUser(c),
			"Product Created",
			fmt.Sprintf("Product %q has been created successfully!", product.Title),
			"newNotification",
		)
	}
}

// handleListProducts returns all product listings.
func (s *Server) handleListProducts() gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := s.store.ListProducts(c.Request.Context())
		if err != nil {
			s.log.Errorf("unable to list products: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to list products"})
			return
		}

		c.JSON(http.StatusOK, products)
	}
}

// handleGetProduct returns a single product listing by ID.
func (s *Server) handleGetProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := s.store.GetProduct(c.Request.Context(), c.Param("id"))
		if errors.Is(err, db.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		if err != nil {
			s.log.Errorf("unable to look up the product: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to look up the product"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"product": product})
	}
}

// handleSearchProducts returns the product listings whose titles contain the search
// term given by the `q` query parameter.
func (s *Server) handleSearchProducts() gin.HandlerFunc {
	return func(c *gin.Context) {
		term := c.Query("q")
		if term == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter q is required"})
			return
		}

		products, err := s.store.SearchProducts(c.Request.Context(), term)
		if err != nil {
			s.log.Errorf("unable to search products: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to search products"})
			return
		}

		c.JSON(http.StatusOK, products)
	}
}

// handleUpdateProduct stores new values for an existing product listing and fires a
// notification to the authenticated seller.
func (s *Server) handleUpdateProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request productRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Verify that the product exists before updating it.
		product, err := s.store.GetProduct(c.Request.Context(), c.Param("id"))
		if errors.Is(err, db.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		if err != nil {
			s.log.Errorf("unable to look up the product: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to update the product"})
			return
		}

		// Apply the mutable fields and store the result.
		product.Title = request.Title
		product.Description = request.Description
		product.Price = request.Price
		product.Category = request.Category
		product.Images = request.Images
		product.Rating = model.Rating{Rate: request.Rate, Count: request.Count}
		if err := s.store.UpdateProduct(c.Request.Context(), product); err != nil {
			s.log.Errorf("unable to update the product: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to update the product"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})

		s.notifier.Notify(
			c.Request.Context(),
			authenticatedUser(c),
			"Product Updated",
			fmt.Sprintf("Product %q has been updated successfully!", product.Title),
			"newNotification",
		)
	}
}

// handleDeleteProduct removes the product listing given by the `id` query parameter.
func (s *Server) handleDeleteProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		productID := c.Query("id")
		if productID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product ID is required"})
			return
		}

		err := s.store.DeleteProduct(c.Request.Context(), productID)
		if errors.Is(err, db.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		if err != nil {
			s.log.Errorf("unable to delete the product: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to delete the product"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
	}
}
