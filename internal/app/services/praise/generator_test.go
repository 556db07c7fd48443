package praise

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Comment(t *testing.T) {
	engine := NewEngine()

	for i := 0; i < 50; i++ {
		comment := engine.Comment("post-1")
		assert.NotEmpty(t, comment.ID)
		assert.Equal(t, "post-1", comment.PostID)
		assert.NotEmpty(t, comment.Content)
		assert.True(t, IsGeneratedAuthor(comment.Author), "author %q not in vocabulary", comment.Author)
		assert.GreaterOrEqual(t, comment.Likes, 1)
		assert.LessOrEqual(t, comment.Likes, 15)

		age := time.Since(comment.CreatedAt)
		assert.GreaterOrEqual(t, age, time.Duration(0))
		assert.Less(t, age, time.Hour+time.Minute)
	}
}

func TestEngine_CommentBatch(t *testing.T) {
	engine := NewEngine()

	for _, count := range []int{0, 1, 5, 20} {
		batch := engine.CommentBatch("post-1", count)
		require.Len(t, batch, count)
		for i := 1; i < len(batch); i++ {
			assert.False(t, batch[i].CreatedAt.After(batch[i-1].CreatedAt),
				"batch not sorted newest-first at index %d", i)
		}
	}
}

func TestEngine_CommentBatchNegativeClamps(t *testing.T) {
	engine := NewEngine()
	assert.Empty(t, engine.CommentBatch("post-1", -3))
}

func TestEngine_GenerateBatchIsLocal(t *testing.T) {
	engine := NewEngine()
	batch, err := engine.GenerateBatch(context.Background(), "post-1", "ignored", 4)
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, batch.Source)
	assert.Len(t, batch.Comments, 4)
}

func TestEngine_IntBetween(t *testing.T) {
	engine := NewEngine()
	for i := 0; i < 100; i++ {
		v := engine.IntBetween(5, 30)
		assert.GreaterOrEqual(t, v, 5)
		assert.LessOrEqual(t, v, 30)
	}
	assert.Equal(t, 7, engine.IntBetween(7, 7))
	// swapped bounds are tolerated
	v := engine.IntBetween(3, 1)
	assert.GreaterOrEqual(t, v, 1)
	assert.LessOrEqual(t, v, 3)
}

func TestIsGeneratedAuthor(t *testing.T) {
	assert.True(t, IsGeneratedAuthor("PixelPraiser"))
	assert.False(t, IsGeneratedAuthor("RealUser"))
	assert.False(t, IsGeneratedAuthor(""))
}
