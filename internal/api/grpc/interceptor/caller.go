package interceptor

import (
	"context"
	"strconv"

	"google.golang.org/grpc/metadata"
)

const userIDHeader = "user-id"

// CallerID returns the user the auth interceptor resolved for this call.
// Public methods have no caller.
func CallerID(ctx context.Context) (int32, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return 0, false
	}
	vals := md.Get(userIDHeader)
	if len(vals) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(vals[0], 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(id), true
}
