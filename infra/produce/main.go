package produce

import amqp "github.com/rabbitmq/amqp091-go"

type Produce struct {
	MovieService *MovieEventService
}

var produceInstance *Produce

func InitProduce(channel *amqp.Channel) *Produce {
	if produceInstance != nil {
		return produceInstance
	}

	movieService := InitMovieEventService(channel)
	if movieService == nil {
		panic("Failed to initialize Movie event service")
	}

	produceInstance = &Produce{
		MovieService: movieService,
	}

	return produceInstance
}

func GetProduce() *Produce {
	if produceInstance == nil {
		panic("Produce not initialized. Call InitProduce() first.")
	}
	return produceInstance
}
