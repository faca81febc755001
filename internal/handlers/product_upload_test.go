package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo.jpg", "photo.jpg"},
		{"my product photo.png", "my_product_photo.png"},
		{"weird!!name@@@.JPG", "weird_name.jpg"},
		{"  spaced  out  .webp", "spaced_out.webp"},
		{"___.png", "image.png"},
		{"a__b___c.gif", "a_b_c.gif"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseMultipartProductRequestFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	_ = writer.WriteField("name", "  Gaming Mouse ")
	_ = writer.WriteField("price", "49.99")
	_ = writer.WriteField("countInStock", "12")
	_ = writer.WriteField("isActive", "true")
	_ = writer.WriteField("tags", "gaming, mouse , ,usb")
	_ = writer.Close()

	req := httptest.NewRequest("POST", "/api/products", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	parsed, err := parseMultipartProductRequest(c)
	if err != nil {
		t.Fatalf("parseMultipartProductRequest returned error: %v", err)
	}
	if !parsed.NameSet || parsed.Name != "Gaming Mouse" {
		t.Fatalf("expected trimmed name, got %+v", parsed)
	}
	if !parsed.PriceSet || parsed.Price != 49.99 {
		t.Fatalf("expected price=49.99, got %+v", parsed)
	}
	if !parsed.CountInStockSet || parsed.CountInStock != 12 {
		t.Fatalf("expected countInStock=12, got %+v", parsed)
	}
	if !parsed.IsActiveSet || !parsed.IsActive {
		t.Fatalf("expected isActive=true, got %+v", parsed)
	}
	if !parsed.TagsSet || strings.Join(parsed.Tags, "|") != "gaming|mouse|usb" {
		t.Fatalf("expected clean tag list, got %+v", parsed.Tags)
	}
	if parsed.ImageSet {
		t.Fatal("no image was sent")
	}
}

func TestParseMultipartProductRequestRejectsBadPrice(t *testing.T) {
	gin.SetMode(gin.TestMode)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("price", "not-a-number")
	_ = writer.Close()

	req := httptest.NewRequest("POST", "/api/products", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	if _, err := parseMultipartProductRequest(c); err == nil {
		t.Fatal("expected error for non-numeric price")
	}
}
