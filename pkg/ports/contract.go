package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/tether/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunMetadataStoreContract runs a suite of tests to verify that a
// MetadataStore implementation adheres to the interface contract.
func RunMetadataStoreContract(t *testing.T, store MetadataStore) {
	ctx := context.Background()
	entity := "contract-entity-" + time.Now().Format("20060102150405")

	t.Run("Set and Read", func(t *testing.T) {
		err := store.SetAttribute(ctx, entity, domain.GUIDAttribute, "guid_abc")
		require.NoError(t, err, "SetAttribute should not return error")

		val, err := store.Attribute(ctx, entity, domain.GUIDAttribute)
		require.NoError(t, err, "Attribute should not return error")
		assert.Equal(t, "guid_abc", val)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.SetAttribute(ctx, entity, "color", "red"))
		require.NoError(t, store.SetAttribute(ctx, entity, "color", "blue"))

		val, err := store.Attribute(ctx, entity, "color")
		require.NoError(t, err)
		assert.Equal(t, "blue", val)
	})

	t.Run("Read Missing", func(t *testing.T) {
		_, err := store.Attribute(ctx, "absent-"+entity, domain.GUIDAttribute)
		assert.ErrorIs(t, err, domain.ErrAttributeNotFound)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.SetAttribute(ctx, entity, "transient", "x"))
		require.NoError(t, store.ClearAttribute(ctx, entity, "transient"))

		_, err := store.Attribute(ctx, entity, "transient")
		assert.ErrorIs(t, err, domain.ErrAttributeNotFound, "Attribute after Clear should return ErrAttributeNotFound")
	})

	t.Run("Clear Missing Is Not An Error", func(t *testing.T) {
		err := store.ClearAttribute(ctx, "absent-"+entity, "never-set")
		assert.NoError(t, err)
	})

	t.Run("Keys Are Independent", func(t *testing.T) {
		require.NoError(t, store.SetAttribute(ctx, entity, "a", "1"))
		require.NoError(t, store.SetAttribute(ctx, entity, "b", "2"))
		require.NoError(t, store.ClearAttribute(ctx, entity, "a"))

		val, err := store.Attribute(ctx, entity, "b")
		require.NoError(t, err)
		assert.Equal(t, "2", val)
	})
}
