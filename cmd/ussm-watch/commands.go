package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/ussm/internal/client"
)

// controller is the part of the poll loop the prompt drives.
type controller interface {
	SetSearch(string)
	SetStatus(string)
	SetType(string)
	SetShowAll(bool)
	ClickPie(string)
	ClearPie()
	Refresh()
	ToggleFavourite(string)
	SaveService(client.ServiceInput)
	DeleteService(string)
}

const helpText = `commands:
  search [text]                 filter by name, empty clears
  status [status]               filter by status
  type [Internal|External]      filter by type
  pie [status]                  select a chart segment, empty clears
  all on|off                    show the whole catalog instead of favourites
  fav <name>                    toggle a favourite
  set <name>|<type>|<status>    create or update a service
  rm <name>                     delete a service
  refresh                       fetch now
  quit`

var errQuit = errors.New("quit")

// dispatch applies one prompt line to c.
func dispatch(line string, c controller) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(verb) {
	case "search", "/":
		c.SetSearch(arg)
	case "status":
		c.SetStatus(arg)
	case "type":
		c.SetType(arg)
	case "pie":
		if arg == "" {
			c.ClearPie()
		} else {
			c.ClickPie(arg)
		}
	case "all":
		switch strings.ToLower(arg) {
		case "on", "true", "":
			c.SetShowAll(true)
		case "off", "false":
			c.SetShowAll(false)
		default:
			return "", fmt.Errorf("all expects on or off, got %q", arg)
		}
	case "fav":
		if arg == "" {
			return "", errors.New("fav needs a service name")
		}
		c.ToggleFavourite(arg)
	case "set":
		fields := strings.Split(arg, "|")
		if len(fields) != 3 {
			return "", errors.New("set expects <name>|<type>|<status>")
		}
		c.SaveService(client.ServiceInput{
			Name:   strings.TrimSpace(fields[0]),
			Type:   strings.TrimSpace(fields[1]),
			Status: strings.TrimSpace(fields[2]),
		})
	case "rm":
		if arg == "" {
			return "", errors.New("rm needs a service name")
		}
		c.DeleteService(arg)
	case "refresh", "r":
		c.Refresh()
	case "help", "?":
		return helpText, nil
	case "quit", "q", "exit":
		return "", errQuit
	default:
		return "", fmt.Errorf("unknown command %q, try help", verb)
	}
	return "", nil
}

func readCommands(ctx context.Context, sc *bufio.Scanner, c controller, s *screen, quit context.CancelFunc) {
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		msg, err := dispatch(sc.Text(), c)
		switch {
		case errors.Is(err, errQuit):
			quit()
			return
		case err != nil:
			s.Notify(err)
		case msg != "":
			s.Message(msg)
		}
	}
}
