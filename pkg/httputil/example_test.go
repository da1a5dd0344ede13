package httputil_test

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/pipinfo/pkg/httputil"
)

func ExampleCache() {
	// Create a cache with 24-hour TTL in a temp directory
	dir := filepath.Join(os.TempDir(), "pipinfo-example")
	cache, err := httputil.NewCache(dir, 24*time.Hour)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	// Store a value
	data := map[string]string{"name": "requests", "version": "2.32.3"}
	if err := cache.Set("pypi:latest:requests", data); err != nil {
		fmt.Println("Error:", err)
		return
	}

	// Retrieve the value
	var result map[string]string
	if ok, err := cache.Get("pypi:latest:requests", &result); ok && err == nil {
		fmt.Println("Name:", result["name"])
		fmt.Println("Version:", result["version"])
	}

	// Clean up
	os.RemoveAll(dir)
	// Output:
	// Name: requests
	// Version: 2.32.3
}

func ExampleCache_miss() {
	dir := filepath.Join(os.TempDir(), "pipinfo-example-miss")
	cache, _ := httputil.NewCache(dir, time.Hour)
	defer os.RemoveAll(dir)

	// Try to get a non-existent key
	var result string
	ok, err := cache.Get("nonexistent", &result)
	fmt.Println("Found:", ok)
	fmt.Println("Error:", err)
	// Output:
	// Found: false
	// Error: <nil>
}

func ExampleCache_Namespace() {
	dir := filepath.Join(os.TempDir(), "pipinfo-example-ns")
	cache, _ := httputil.NewCache(dir, time.Hour)
	defer os.RemoveAll(dir)

	latest := cache.Namespace("pypi:latest:")
	latest.Set("requests", "2.32.3")

	// The same entry is visible through the full key
	var v string
	ok, _ := cache.Get("pypi:latest:requests", &v)
	fmt.Println(ok, v)
	// Output:
	// true 2.32.3
}
