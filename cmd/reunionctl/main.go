package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"reunion/internal/config"
	"reunion/internal/directory"
	"reunion/internal/events"
	"reunion/internal/logging"
	"reunion/internal/services"
	"reunion/internal/storage"
)

func usage() {
	fmt.Println("usage:")
	fmt.Println("  reunionctl migrate                         - create or update the database tables")
	fmt.Println("  reunionctl list-friends <userID>           - list a user's friends")
	fmt.Println("  reunionctl show-request <userID> <reqID>   - show a friend request as seen by a user")
	fmt.Println("  reunionctl search <name> [key=value ...]   - run a memory search (edu_type, education, department, batch_start, batch_end, fuzzy)")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig("")
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		logrus.Fatalf("failed to configure logging: %v", err)
	}

	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		logrus.Fatalf("failed to initialize database: %v", err)
	}

	ctx := context.Background()
	switch os.Args[1] {
	case "migrate":
		if err := storage.AutoMigrateTables(db); err != nil {
			logrus.Fatalf("migration failed: %v", err)
		}
		fmt.Println("migration finished")

	case "list-friends":
		if len(os.Args) < 3 {
			logrus.Fatal("a user id is required")
		}
		listFriends(ctx, relationshipService(db), mustUint(os.Args[2]))

	case "show-request":
		if len(os.Args) < 4 {
			logrus.Fatal("a user id and a request id are required")
		}
		showRequest(ctx, relationshipService(db), mustUint(os.Args[2]), mustUint(os.Args[3]))

	case "search":
		if len(os.Args) < 3 {
			logrus.Fatal("a name is required")
		}
		search(ctx, directory.NewSearcher(storage.NewGormProfileRepository(db), cfg.Search.FuzzyThreshold), os.Args[2], os.Args[3:])

	default:
		usage()
		logrus.Fatalf("unknown command: %s", os.Args[1])
	}
}

func relationshipService(db *gorm.DB) services.RelationshipService {
	return services.NewRelationshipService(db,
		storage.NewGormUserRepository(db),
		storage.NewGormFriendRequestRepository(db),
		storage.NewGormFriendshipRepository(db),
		events.NoopPublisher{},
	)
}

func mustUint(s string) uint {
	v, err := storage.StrToUint(s)
	if err != nil {
		logrus.Fatalf("invalid id %q: %v", s, err)
	}
	return v
}

func listFriends(ctx context.Context, svc services.RelationshipService, userID uint) {
	page, err := svc.FriendsPage(ctx, userID, 1, services.MaxFriendsPageSize)
	if err != nil {
		logrus.Fatalf("failed to list friends: %v", err)
	}

	fmt.Printf("friends of %s (id %d), %d in total:\n", page.Username, page.ID, page.Pagination.TotalFriends)
	fmt.Println("--------------------------------------")
	for i, f := range page.Friends {
		fmt.Printf("#%d id: %d, username: %s, name: %s %s\n", i+1, f.ID, f.Username, f.FirstName, f.LastName)
	}
	if page.Pagination.TotalPages > 1 {
		fmt.Printf("(showing the first %d)\n", len(page.Friends))
	}
}

func showRequest(ctx context.Context, svc services.RelationshipService, userID, requestID uint) {
	req, err := svc.GetRequest(ctx, userID, requestID)
	if err != nil {
		logrus.Fatalf("failed to load friend request: %v", err)
	}
	printJSON(req.View())
}

func search(ctx context.Context, searcher *directory.Searcher, name string, args []string) {
	params := url.Values{"name": {name}}
	for _, arg := range args {
		kv, err := url.ParseQuery(arg)
		if err != nil {
			logrus.Fatalf("invalid argument %q: %v", arg, err)
		}
		for k, v := range kv {
			params[k] = v
		}
	}

	q, err := directory.ParseQuery(params)
	if err != nil {
		logrus.Fatalf("invalid query: %v", err)
	}
	result, err := searcher.Search(ctx, q)
	if err != nil {
		logrus.Fatalf("search failed: %v", err)
	}
	fmt.Println(strconv.Itoa(result.Len()) + " result(s)")
	printJSON(result.Items())
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logrus.Fatalf("failed to encode output: %v", err)
	}
}
