package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
)

// DBHealthCheck performs a health check on the database connection
func DBHealthCheck(db dbx.Builder) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var one int
	if err := db.NewQuery("SELECT 1").WithContext(ctx).Row(&one); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}
