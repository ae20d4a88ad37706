package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"medingest/internal/config"
	"medingest/internal/vectorstore"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Manage Qdrant collections",
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all collections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore("")
		if err != nil {
			return err
		}
		defer store.Close()

		names, err := store.ListCollections(cmd.Context())
		if err != nil {
			return fmt.Errorf("list collections: %w", err)
		}
		if len(names) == 0 {
			fmt.Println("no collections")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var collectionsStatsCmd = &cobra.Command{
	Use:   "stats [name]",
	Short: "Show point count for a collection",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(nameArg(args))
		if err != nil {
			return err
		}
		defer store.Close()

		count, err := store.Count(cmd.Context())
		if err != nil {
			return fmt.Errorf("count points: %w", err)
		}
		fmt.Printf("collection: %s\npoints: %d\n", store.Collection(), count)
		return nil
	},
}

var collectionsDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a collection",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(nameArg(args))
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteCollection(cmd.Context()); err != nil {
			return fmt.Errorf("delete collection: %w", err)
		}
		fmt.Printf("deleted collection %q\n", store.Collection())
		return nil
	},
}

var collectionsClearCmd = &cobra.Command{
	Use:   "clear [name]",
	Short: "Remove all points from a collection",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(nameArg(args))
		if err != nil {
			return err
		}
		defer store.Close()

		count, err := store.Count(cmd.Context())
		if err != nil {
			return fmt.Errorf("count points: %w", err)
		}
		// Dropping the collection is the cheapest way to clear it; the next
		// ingest recreates it with the right dimensions.
		if err := store.DeleteCollection(cmd.Context()); err != nil {
			return fmt.Errorf("clear collection: %w", err)
		}
		fmt.Printf("cleared collection %q (%d points removed)\n", store.Collection(), count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
	collectionsCmd.AddCommand(collectionsListCmd)
	collectionsCmd.AddCommand(collectionsStatsCmd)
	collectionsCmd.AddCommand(collectionsDeleteCmd)
	collectionsCmd.AddCommand(collectionsClearCmd)

	collectionsCmd.PersistentFlags().StringVar(&flagQdrantAddr, "qdrant-addr", config.Load().QdrantAddr, "Qdrant gRPC address")
}

func nameArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func openStore(collection string) (*vectorstore.Store, error) {
	if collection == "" {
		collection = config.Load().Collection
	}
	store, err := vectorstore.New(flagQdrantAddr, collection)
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}
	return store, nil
}
