package training

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	wla "github.com/ma-hartma/watermill-logrus-adapter"

	"github.com/parleybot/parley/internal"
	"github.com/parleybot/parley/pkg/models"
)

var log = internal.GetLogger()

var onceRouter sync.Once

// TaskRouter is a wrapper around watermill's Router that adds some
// functionality for managing tasks and handlers. All handlers subscribe to
// the in-process GoChannel Pub/Sub; this service keeps no queue state
// outside the process.
type TaskRouter struct {
	*message.Router
	subscriber message.Subscriber
}

func NewTaskRouter(pubSub *gochannel.GoChannel) (*TaskRouter, error) {
	var wlog = wla.NewLogrusLogger(log)

	router, err := message.NewRouter(message.RouterConfig{}, wlog)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(
		// CorrelationID will copy the correlation id from the incoming message's metadata to the produced messages
		middleware.CorrelationID,

		// Recoverer handles panics from handlers. A panicking compile marks
		// the job failed rather than taking the router down.
		middleware.Recoverer,
	)

	return &TaskRouter{
		Router:     router,
		subscriber: pubSub,
	}, nil
}

// AddTask adds a task handler to the router.
func (tr *TaskRouter) AddTask(_ context.Context, name string, taskType models.TaskTopic, task models.Task) {
	tr.AddNoPublisherHandler(
		name,
		string(taskType),
		tr.subscriber,
		TaskHandler(task),
	)
}

// TaskHandler returns a message handler function for the given task.
// Handlers are NoPublishHandlerFuncs i.e. do not publish messages.
func TaskHandler(task models.Task) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		err := task.Execute(msg.Context(), msg)
		if err != nil {
			task.HandleError(err)
			return err
		}
		return nil
	}
}

// RunTaskRouter wires the training pipeline into appState: the GoChannel
// Pub/Sub, the task router, the publisher and the coordinator.
func RunTaskRouter(ctx context.Context, appState *models.AppState) {
	// Run once to avoid test situations where the router is initialized multiple times
	onceRouter.Do(func() {
		pubSub := gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: int64(appState.Config.Training.QueueBufferSize),
			},
			wla.NewLogrusLogger(log),
		)

		router, err := NewTaskRouter(pubSub)
		if err != nil {
			log.Fatalf("failed to create task router: %v", err)
		}

		publisher := NewTaskPublisher(pubSub)
		coordinator := NewCoordinator(appState, publisher)

		router.AddTask(
			ctx,
			string(models.ModelTrainerTopic),
			models.ModelTrainerTopic,
			NewTrainTask(coordinator),
		)

		appState.TaskRouter = router
		appState.TaskPublisher = publisher
		appState.Trainer = coordinator

		go func() {
			log.Info("running task router")
			err := router.Run(ctx)
			if err != nil {
				log.Fatalf("failed to run task router %v", err)
			}
		}()

		// Block until the handlers are subscribed. A train request accepted
		// before that point would publish into the void.
		<-router.Running()
	})
}
