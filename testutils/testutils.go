package testutils

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"net"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/spf13/viper"
)

// TestHelper starts and tears down the containers integration tests run
// against.
type TestHelper struct {
	DockerClient *client.Client
	Conf         *viper.Viper
}

func NewTestHelper(conf *viper.Viper) *TestHelper {
	dcli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		panic(fmt.Errorf("could not connect to docker: %v", err))
	}

	helper := TestHelper{
		Conf:         conf,
		DockerClient: dcli,
	}

	return &helper
}

// StartPostgres starts a new postgres container and waits until it
// accepts connections.
func (helper *TestHelper) StartPostgres() (string, error) {
	port, err := nat.NewPort("tcp", helper.Conf.GetString("postgres_container_port"))
	if err != nil {
		return "", err
	}

	image := helper.Conf.GetString("postgres_container_image")
	if err := helper.pullDockerImage(image); err != nil {
		return "", err
	}

	c, err := helper.DockerClient.ContainerCreate(
		context.Background(),
		&container.Config{
			Image: image,
			ExposedPorts: map[nat.Port]struct{}{
				"5432/tcp": {},
			},
			Env: []string{
				"POSTGRES_PASSWORD=releasewatch",
				"POSTGRES_DB=releasewatch",
				"POSTGRES_USER=releasewatch",
			},
		},
		&container.HostConfig{
			PortBindings: map[nat.Port][]nat.PortBinding{
				"5432/tcp": {{
					HostIP:   "0.0.0.0",
					HostPort: port.Port(),
				}},
			},
			NetworkMode: "bridge",
		},
		nil, nil, "")
	if err != nil {
		return "", err
	}

	if err := helper.DockerClient.ContainerStart(context.Background(), c.ID, types.ContainerStartOptions{}); err != nil {
		// Try 4 more times
		// 5, 10, 20, 40
		for i := 0; i < 4 && err != nil; i++ {
			time.Sleep(time.Duration(5*math.Pow(2, float64(i))) * time.Second)
			err = helper.DockerClient.ContainerStart(context.Background(), c.ID, types.ContainerStartOptions{})
		}
		if err != nil {
			return "", err
		}
	}

	if err := helper.waitForConn("localhost:" + port.Port()); err != nil {
		return c.ID, err
	}

	return c.ID, nil
}

// RemoveContainer removes with force a container by its container ID.
func (helper *TestHelper) RemoveContainer(ctrs ...string) (err error) {
	for _, c := range ctrs {
		err = helper.DockerClient.ContainerRemove(context.Background(), c,
			types.ContainerRemoveOptions{
				RemoveVolumes: true,
				Force:         true,
			})
	}

	return err
}

func (helper *TestHelper) pullDockerImage(image string) error {
	exists, err := helper.imageExists(image)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	resp, err := helper.DockerClient.ImagePull(context.Background(), image, types.ImagePullOptions{})
	if err != nil {
		return err
	}
	defer resp.Close()

	_, err = io.Copy(ioutil.Discard, resp)
	return err
}

func (helper *TestHelper) imageExists(image string) (bool, error) {
	images, err := helper.DockerClient.ImageList(context.Background(), types.ImageListOptions{})
	if err != nil {
		return false, err
	}
	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == image {
				return true, nil
			}
		}
	}
	return false, nil
}

func (helper *TestHelper) waitForConn(addr string) error {
	var err error
	for i := 0; i < 30; i++ {
		var conn net.Conn
		conn, err = net.DialTimeout("tcp", addr, time.Second)
		if err == nil {
			conn.Close()
			// postgres restarts once after initdb, give it a moment
			time.Sleep(2 * time.Second)
			return nil
		}
		time.Sleep(time.Second)
	}
	return fmt.Errorf("waiting for %s timed out: %v", addr, err)
}
